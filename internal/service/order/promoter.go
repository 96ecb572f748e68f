package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// ShadowSupplyPromoter достаёт черновик версорунг из кэша и превращает
// его в персистентную приватную версорунг. Сама строка создаётся внутри
// транзакции заказа (через OrderBundle); промоутер отвечает за выборку,
// проверки принадлежности и отложенное удаление ключа.
type ShadowSupplyPromoter struct {
	cache  domain.ShadowSupplyCache
	queue  domain.TaskQueue
	logger *log.Entry
}

// NewShadowSupplyPromoter создаёт промоутер черновиков.
func NewShadowSupplyPromoter(cache domain.ShadowSupplyCache, queue domain.TaskQueue, logger *log.Entry) *ShadowSupplyPromoter {
	if logger == nil {
		logger = log.WithField("component", "shadow-promoter")
	}
	return &ShadowSupplyPromoter{cache: cache, queue: queue, logger: logger}
}

// Fetch возвращает черновик по ключу, проверяя владельца и клиента.
// Чужой, истёкший или уже потреблённый ключ неразличимы для
// вызывающего: во всех случаях ErrShadowSupplyNotFound.
func (p *ShadowSupplyPromoter) Fetch(key, partnerID, customerID string) (domain.ShadowSupply, error) {
	shadow, err := p.cache.Get(key)
	if err != nil {
		return domain.ShadowSupply{}, err
	}

	if shadow.PartnerID != partnerID || shadow.CustomerID != customerID {
		p.logger.WithFields(log.Fields{
			"key":        key,
			"partner_id": partnerID,
		}).Warn("shadow supply ownership check failed")
		return domain.ShadowSupply{}, domain.ErrShadowSupplyNotFound
	}

	return shadow, nil
}

// Build создаёт персистентную версорунг из черновика. Строка попадёт в
// хранилище только вместе с заказом.
func (p *ShadowSupplyPromoter) Build(shadow domain.ShadowSupply, now time.Time) domain.Supply {
	return shadow.ToSupply(uuid.NewString(), now)
}

// ScheduleDelete планирует удаление потреблённого ключа после коммита
// транзакции заказа. Удаление fire-and-forget: его сбой оставляет ключ
// дожидаться TTL, но не влияет на ответ и не позволяет повторный
// промоушен осмысленно завершиться (ownership-проверки выше выдержат
// и гонку get/delete).
func (p *ShadowSupplyPromoter) ScheduleDelete(key string) {
	p.queue.Enqueue(domain.Task{
		Name: "shadow-supply-delete",
		Run: func(ctx context.Context) error {
			return p.cache.Delete(key)
		},
	})
}
