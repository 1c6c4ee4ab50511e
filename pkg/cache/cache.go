package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clv-forecast/pkg/models"

	"github.com/redis/go-redis/v9"
)

// Statuts renvoyés par Get/Set.
const (
	StatusHit          = "HIT"
	StatusMiss         = "MISS"
	StatusRedisIssue   = "REDIS_ISSUE"
	StatusUnmarshal    = "UNMARSHALING_ISSUE"
	StatusMarshal      = "MARSHAL_ISSUE"
	StatusSetFailed    = "REDIS_SET_FAILED"
	StatusSetSucceeded = "REDIS_SET_SUCCESS"
)

// ReportCache met en cache les rapports CLV dans Redis, à la demande de l'appelant.
type ReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func New(client redis.Cmdable, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Key renvoie la clé Redis d'un rapport.
func Key(fingerprint string) string {
	return "clv:report:" + fingerprint
}

// Fingerprint identifie un jeu de transactions et une configuration de score :
// deux exécutions de même empreinte produisent les mêmes résumés et segments.
func Fingerprint(records []models.TransactionRecord, cfg models.Config) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%g|%g|%g|%d|%d\n", cfg.TimeUnit, cfg.HorizonPeriods, cfg.PeriodDays,
		cfg.DiscountRate, cfg.Penalizer, cfg.TopN, cfg.HistogramBins)
	for _, r := range records {
		fmt.Fprintf(h, "%q|%d|%s\n", r.CustomerID, r.Date.UnixNano(), r.Amount.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ReportCache) Get(ctx context.Context, fingerprint string) (*models.Report, string, error) {
	value, err := c.client.Get(ctx, Key(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, StatusMiss, nil
	} else if err != nil {
		return nil, StatusRedisIssue, err
	}
	rep := &models.Report{}
	if err := json.Unmarshal([]byte(value), rep); err != nil {
		return nil, StatusUnmarshal, err
	}
	return rep, StatusHit, nil
}

func (c *ReportCache) Set(ctx context.Context, fingerprint string, rep *models.Report) (string, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return StatusMarshal, err
	}
	if err := c.client.Set(ctx, Key(fingerprint), raw, c.ttl).Err(); err != nil {
		return StatusSetFailed, err
	}
	return StatusSetSucceeded, nil
}
