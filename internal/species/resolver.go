// Package species разбирает выражение выбора видов.
//
// Поддерживаемые формы:
//
//	all              — все виды каталога
//	100001,100002    — явный список идентификаторов
//	1:30             — срез: виды, чей числовой id ≡ 1 (mod 30)
//
// Элементы списка можно смешивать: "100001,0:4". Любой идентификатор,
// которого нет в каталоге, — ошибка конфигурации до начала диспетчеризации.
package species

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidSelection — выражение выбора видов некорректно.
var ErrInvalidSelection = errors.New("invalid species selection")

// KeywordAll — выбрать все виды каталога.
const KeywordAll = "all"

// Resolve превращает выражение expr в отсортированный набор видов из reps.
func Resolve(expr string, reps map[string]string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSelection)
	}

	selected := make(map[string]struct{})

	if strings.EqualFold(expr, KeywordAll) {
		for id := range reps {
			selected[id] = struct{}{}
		}
		return sortedKeys(selected), nil
	}

	for _, item := range strings.Split(expr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%w: empty item in %q", ErrInvalidSelection, expr)
		}

		if !strings.Contains(item, ":") {
			if _, ok := reps[item]; !ok {
				return nil, fmt.Errorf("%w: species %s is not in the database", ErrInvalidSelection, item)
			}
			selected[item] = struct{}{}
			continue
		}

		idx, modulus, err := parseSlice(item)
		if err != nil {
			return nil, err
		}
		for id := range reps {
			n, err := parseID(id)
			if err != nil {
				return nil, fmt.Errorf("%w: catalog species %q has no integer id for slicing", ErrInvalidSelection, id)
			}
			if n%modulus == idx {
				selected[id] = struct{}{}
			}
		}
	}

	return sortedKeys(selected), nil
}

// parseSlice разбирает "idx:modulus", 0 <= idx < modulus.
func parseSlice(item string) (idx, modulus int, err error) {
	parts := strings.Split(item, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: slice %q must be idx:modulus", ErrInvalidSelection, item)
	}
	idx, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: slice index %q: %v", ErrInvalidSelection, parts[0], err)
	}
	modulus, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: slice modulus %q: %v", ErrInvalidSelection, parts[1], err)
	}
	if idx < 0 || modulus <= 0 || idx >= modulus {
		return 0, 0, fmt.Errorf("%w: species class and modulus make no sense: %d, %d", ErrInvalidSelection, idx, modulus)
	}
	return idx, modulus, nil
}

// parseID проверяет, что идентификатор каталога — каноническое неотрицательное целое.
func parseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || strconv.Itoa(n) != id {
		return 0, fmt.Errorf("%w: species id is not an integer: %q", ErrInvalidSelection, id)
	}
	return n, nil
}

func sortedKeys(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
