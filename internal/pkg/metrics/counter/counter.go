package counter

import (
	"context"
	"strconv"

	"github.com/inceptionai/inception/internal/pkg/cache"
)

const generationsKey = "generation:counters:completed"

// Generation kinds tracked in the completed-generations hash.
const (
	KindConversation = "conversation"
	KindCode         = "code"
	KindImage        = "image"
	KindMusic        = "music"
	KindVideo        = "video"
)

// AddGeneration increments the completed-generation counter for a kind
// in Redis. The counters are operational metrics only and play no part
// in entitlement decisions.
func AddGeneration(kind string) error {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	ctx := context.Background()
	return client.HIncrBy(ctx, generationsKey, kind, 1).Err()
}

// Totals returns the completed-generation counts per kind.
func Totals() (map[string]int64, error) {
	client := cache.GetClient()
	if client == nil {
		return map[string]int64{}, nil
	}
	ctx := context.Background()
	data, err := client.HGetAll(ctx, generationsKey).Result()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(data))
	for kind, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		totals[kind] = n
	}
	return totals, nil
}
