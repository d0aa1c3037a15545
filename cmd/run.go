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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

// runCommands wires the `run` subcommand: one full reconciliation cycle over
// the stored lines and postings.
func runCommands(p *poreconInstance) *cobra.Command {
	var snapshotDate string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a reconciliation cycle",
		Run: func(cmd *cobra.Command, args []string) {
			snapshot := time.Now().UTC().Truncate(24 * time.Hour)
			if snapshotDate != "" {
				parsed, err := time.Parse("2006-01-02", snapshotDate)
				if err != nil {
					log.Fatalf("invalid snapshot date %q: %v", snapshotDate, err)
				}
				snapshot = parsed
			}

			summary, err := p.reconciler.RunReconciliation(context.Background(), snapshot)
			if err != nil {
				log.Fatalf("reconciliation run failed: %v", err)
			}

			data, err := json.MarshalIndent(summary, "", "    ")
			if err != nil {
				log.Fatalf("error printing run summary: %v", err)
			}
			fmt.Println(string(data))
		},
	}

	cmd.Flags().StringVar(&snapshotDate, "snapshot-date", "", "calculation date (YYYY-MM-DD), defaults to today")
	return cmd
}
