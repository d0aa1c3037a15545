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

	"github.com/spf13/cobra"
)

// premapCommands wires the `premap` subcommand: a standalone pre-mapping
// matcher pass, without recomputing cost impact.
func premapCommands(p *poreconInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "premap",
		Short: "run the pre-mapping matcher pass",
		Run: func(cmd *cobra.Command, args []string) {
			summary, err := p.reconciler.RunPreMappingPass(context.Background())
			if err != nil {
				log.Fatalf("pre-mapping pass failed: %v", err)
			}

			data, err := json.MarshalIndent(summary, "", "    ")
			if err != nil {
				log.Fatalf("error printing matcher summary: %v", err)
			}
			fmt.Println(string(data))
		},
	}
	return cmd
}
