package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

// numberGenerationAttempts ограничивает перебор случайных суффиксов.
const numberGenerationAttempts = 5

// NumberChecker проверяет занятость номера документа у подрядчика.
type NumberChecker func(ctx context.Context, contractorID uuid.UUID, number string) (bool, error)

// withDocumentNumber подбирает свободный номер вида PREFIX-YYYYMM-NNN и
// выполняет вставку документа с этим номером. Проверка занятости и вставка
// не атомарны: два конкурентных запроса могут выбрать один номер, тогда
// проигравшая вставка вернёт repository.ErrDuplicateNumber и попытка
// повторяется в пределах общего лимита. Исчерпание попыток - сигнал
// о переполнении месячного пространства номеров.
func withDocumentNumber(ctx context.Context, prefix string, contractorID uuid.UUID, exists NumberChecker, insert func(ctx context.Context, number string) error) (string, error) {
	now := time.Now()

	for attempt := 0; attempt < numberGenerationAttempts; attempt++ {
		number := fmt.Sprintf("%s-%d%02d-%03d", prefix, now.Year(), int(now.Month()), rand.Intn(1000))

		taken, err := exists(ctx, contractorID, number)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		if err := insert(ctx, number); err != nil {
			if errors.Is(err, repository.ErrDuplicateNumber) {
				continue
			}
			return "", err
		}
		return number, nil
	}

	return "", apperror.New(apperror.ErrCodeNumberGenerationFailed,
		"не удалось подобрать свободный номер документа")
}
