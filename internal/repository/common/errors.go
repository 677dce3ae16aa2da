package common

import (
	"errors"

	"github.com/lib/pq"
)

// pgUniqueViolation код ошибки PostgreSQL для нарушения уникальности.
const pgUniqueViolation = "23505"

// IsUniqueViolation сообщает, вызвана ли ошибка нарушением unique-ограничения.
// Используется при генерации номеров документов для повторной попытки.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
