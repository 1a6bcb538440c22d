// Package mq публикует уведомления о готовых артефактах в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация artifact.ready
//   - consumer.go   — чтение artifact.ready (команда chunkplan watch)
//
// Уведомления информационные: ни один компонент не планирует по ним работу.
// Диспетчер публикует их, только если задан RABBITMQ_URL.
//
// Exchanges:
//   - chunkplan.artifacts — события артефактов
//   - chunkplan.dlq       — нечитаемые сообщения
package mq
