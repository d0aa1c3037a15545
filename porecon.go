/*
Copyright 2024 Costline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package porecon

import (
	"github.com/redis/go-redis/v9"

	"github.com/costline/porecon/config"
	"github.com/costline/porecon/database"
	redisdb "github.com/costline/porecon/internal/redisdb"
)

// Reconciler is the main struct of the cost reconciliation engine. It owns
// the datasource and, when Redis is configured, the client backing the
// matcher lock and the classification cache.
type Reconciler struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
}

// NewReconciler initializes a new Reconciler with the provided datasource.
// Redis is optional: without it the matcher runs unlocked and classification
// is memoized per run only.
//
// Parameters:
// - db database.IDataSource: The datasource for database operations.
//
// Returns:
// - *Reconciler: A pointer to the newly created Reconciler instance.
// - error: An error if any of the initialization steps fail.
func NewReconciler(db database.IDataSource) (*Reconciler, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	var redisClient redis.UniversalClient
	if configuration.Redis.Dns != "" {
		client, err := redisdb.NewRedisClient(configuration.Redis.Dns)
		if err != nil {
			return nil, err
		}
		redisClient = client.Client()
	}

	return &Reconciler{datasource: db, redis: redisClient}, nil
}
