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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	// DEFAULT_ORPHAN_RATE_THRESHOLD aborts a run when more than this share
	// of postings reference unresolvable PO lines.
	DEFAULT_ORPHAN_RATE_THRESHOLD = 0.05
	// DEFAULT_SHRINKAGE_THRESHOLD aborts a run when the active line count
	// drops by more than this share versus the prior completed run.
	DEFAULT_SHRINKAGE_THRESHOLD = 0.5
	DEFAULT_WORKER_COUNT        = 8
	DEFAULT_BATCH_SIZE          = 1000
	DEFAULT_LOCK_TTL_SEC        = 300
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"PORECON_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"PORECON_REDIS_DNS"`
}

// ReconciliationConfig tunes the run-level behavior of the engine.
type ReconciliationConfig struct {
	OrphanRateThreshold float64 `json:"orphan_rate_threshold" envconfig:"PORECON_ORPHAN_RATE_THRESHOLD"`
	ShrinkageThreshold  float64 `json:"shrinkage_threshold" envconfig:"PORECON_SHRINKAGE_THRESHOLD"`
	WorkerCount         int     `json:"worker_count" envconfig:"PORECON_WORKER_COUNT"`
	BatchSize           int     `json:"batch_size" envconfig:"PORECON_BATCH_SIZE"`
	LockTTLSec          int     `json:"lock_ttl_sec" envconfig:"PORECON_LOCK_TTL_SEC"`
	DisableMatcher      bool    `json:"disable_matcher" envconfig:"PORECON_DISABLE_MATCHER"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName    string               `json:"project_name" envconfig:"PORECON_PROJECT_NAME"`
	DataSource     DataSourceConfig     `json:"data_source"`
	Redis          RedisConfig          `json:"redis"`
	Reconciliation ReconciliationConfig `json:"reconciliation"`
	Notification   Notification         `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("porecon", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called porecon.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Porecon"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Reconciliation.OrphanRateThreshold <= 0 || cnf.Reconciliation.OrphanRateThreshold > 1 {
		cnf.Reconciliation.OrphanRateThreshold = DEFAULT_ORPHAN_RATE_THRESHOLD
	}
	if cnf.Reconciliation.ShrinkageThreshold <= 0 || cnf.Reconciliation.ShrinkageThreshold > 1 {
		cnf.Reconciliation.ShrinkageThreshold = DEFAULT_SHRINKAGE_THRESHOLD
	}
	if cnf.Reconciliation.WorkerCount <= 0 {
		cnf.Reconciliation.WorkerCount = DEFAULT_WORKER_COUNT
	}
	if cnf.Reconciliation.BatchSize <= 0 {
		cnf.Reconciliation.BatchSize = DEFAULT_BATCH_SIZE
	}
	if cnf.Reconciliation.LockTTLSec <= 0 {
		cnf.Reconciliation.LockTTLSec = DEFAULT_LOCK_TTL_SEC
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mc := *mockConfig
	if err := mc.validateAndAddDefaults(); err != nil {
		// Tests may intentionally omit the datasource DNS; store as-is.
		ConfigStore.Store(mockConfig)
		return
	}
	ConfigStore.Store(&mc)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
