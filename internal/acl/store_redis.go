package acl

import (
	"context"

	"github.com/redis/go-redis/v9"

	"veilfund/internal/fhe"
	"veilfund/pkg/domain"
)

const grantKeyPrefix = "acl:handle:"

// Redis is a Redis-backed registry for deployments where multiple instances
// share grant state. Grants are sets keyed by handle and carry no TTL; the
// relation is append-only.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Grant(ctx context.Context, h fhe.Handle, p domain.Principal) error {
	return r.client.SAdd(ctx, grantKeyPrefix+string(h), string(p)).Err()
}

func (r *Redis) Allowed(ctx context.Context, h fhe.Handle, p domain.Principal) (bool, error) {
	return r.client.SIsMember(ctx, grantKeyPrefix+string(h), string(p)).Result()
}
