package goroutine

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/smetapro/contractor-backend/internal/logger"
)

// SafeGo запускает функцию в горутине с перехватом паники.
// Используется для фоновой отправки уведомлений: паника в фоне
// не должна ронять процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log := logger.Log
				if log == nil {
					log = logrus.StandardLogger()
				}
				log.WithFields(logrus.Fields{
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("паника в фоновой горутине")
			}
		}()
		fn()
	}()
}
