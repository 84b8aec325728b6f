package janaushadhi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var _ ports.CatalogService = (*CachedCatalog)(nil)

const keyPrefix = "janaushadhi:"

// CachedCatalog decora un CatalogService con caché en Redis. Un fallo de Redis no corta la
// consulta: se registra y se va al catálogo remoto.
type CachedCatalog struct {
	next ports.CatalogService
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger
}

// NewCachedCatalog construye el decorador.
func NewCachedCatalog(next ports.CatalogService, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &CachedCatalog{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedCatalog) Search(ctx context.Context, query string) (*dto.JanAushadhiSearchResponse, error) {
	key := keyPrefix + "search:" + strings.ToLower(strings.TrimSpace(query))
	var cached []dto.JanAushadhiProductDTO
	if c.load(ctx, key, &cached) {
		return &dto.JanAushadhiSearchResponse{Items: cached, Source: "cache"}, nil
	}
	res, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, res.Items)
	return res, nil
}

// GetByCode solo guarda en caché los códigos encontrados.
func (c *CachedCatalog) GetByCode(ctx context.Context, drugCode string) (*dto.JanAushadhiProductDTO, error) {
	key := keyPrefix + "code:" + strings.TrimSpace(drugCode)
	var cached dto.JanAushadhiProductDTO
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}
	res, err := c.next.GetByCode(ctx, drugCode)
	if err != nil || res == nil {
		return res, err
	}
	c.store(ctx, key, res)
	return res, nil
}

func (c *CachedCatalog) load(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("caché del catálogo no disponible")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché corrupta")
		return false
	}
	return true
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar en caché")
	}
}
