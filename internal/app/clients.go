package app

import (
	"fmt"

	"github.com/cartographai/discovery-backend/internal/platform/llm"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

type Clients struct {
	Catalog onet.Client
	Gateway llm.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	cache := onet.NewSearchCacheFromEnv(log)
	catalog, err := onet.NewClient(log, cache)
	if err != nil {
		return Clients{}, fmt.Errorf("init occupation catalog client: %w", err)
	}
	gateway, err := llm.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm gateway client: %w", err)
	}
	return Clients{Catalog: catalog, Gateway: gateway}, nil
}
