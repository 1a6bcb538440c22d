package domain

// Outcome — итог обработки одного вида (species) за запуск.
//
// Жизненный цикл:
//
//	PENDING → SKIPPED   (артефакт уже есть, --force не указан)
//	        → SUCCEEDED (worker отработал, артефакт загружен)
//	        ↘ FAILED    (ошибка каталога, проверки существования или worker'а)
type Outcome string

const (
	// OutcomePending — вид ещё не обработан.
	OutcomePending Outcome = "PENDING"

	// OutcomeSkipped — артефакт уже существует, пересчёт не запрошен.
	OutcomeSkipped Outcome = "SKIPPED"

	// OutcomeSucceeded — артефакт посчитан и загружен.
	OutcomeSucceeded Outcome = "SUCCEEDED"

	// OutcomeFailed — обработка вида завершилась ошибкой.
	OutcomeFailed Outcome = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (o Outcome) IsTerminal() bool {
	switch o {
	case OutcomeSkipped, OutcomeSucceeded, OutcomeFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление Outcome.
func (o Outcome) String() string {
	return string(o)
}
