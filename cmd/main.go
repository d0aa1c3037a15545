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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/costline/porecon"
	"github.com/costline/porecon/config"
	"github.com/costline/porecon/database"
	"github.com/costline/porecon/internal/notification"
)

// Porecon represents the CLI application, encapsulating the root Cobra command.
type Porecon struct {
	cmd *cobra.Command
}

// poreconInstance holds the engine instance and its configuration, shared by
// every subcommand.
type poreconInstance struct {
	reconciler *porecon.Reconciler
	cnf        *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the engine instance
// before running any command.
func preRun(app *poreconInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		reconciler, err := setupReconciler(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.reconciler = reconciler
		app.cnf = cnf

		return nil
	}
}

// setupReconciler creates the engine instance from the configured datasource.
func setupReconciler(cfg *config.Configuration) (*porecon.Reconciler, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	reconciler, err := porecon.NewReconciler(db)
	if err != nil {
		return nil, fmt.Errorf("error creating reconciler: %v", err)
	}
	return reconciler, nil
}

// NewCLI creates the command-line interface for the reconciliation engine.
func NewCLI() *Porecon {
	var configFile string
	p := &poreconInstance{}

	var rootCmd = &cobra.Command{
		Use:   "porecon",
		Short: "Purchase order cost reconciliation engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./porecon.json", "Configuration file for the engine")
	rootCmd.PersistentPreRunE = preRun(p, &configFile)

	rootCmd.AddCommand(runCommands(p))
	rootCmd.AddCommand(premapCommands(p))
	rootCmd.AddCommand(migrateCommands())
	rootCmd.AddCommand(configCommands())

	return &Porecon{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Porecon) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
