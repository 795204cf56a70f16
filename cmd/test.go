/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/lokator/internal/translator"
)

var (
	testProvider providerFlags
	testAll      bool
)

type connectionResult struct {
	id      translator.ProviderID
	ok      bool
	err     error
	elapsed time.Duration
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that a provider answers",
	Long: `Translate the probe "Hello" from English to Russian through a provider
and report whether a non-empty translation came back.

With --all every provider is checked concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var ids []translator.ProviderID
		if testAll {
			ids = translator.ProviderIDs()
		} else {
			var stored string
			if st := openSettings(); st != nil {
				stored = st.Load().Provider
			}
			id, err := resolveProvider(testProvider.name, stored)
			if err != nil {
				return err
			}
			ids = []translator.ProviderID{id}
		}

		results := make([]connectionResult, len(ids))

		g, ctx := errgroup.WithContext(cmd.Context())
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				res := connectionResult{id: id}
				start := time.Now()

				p, err := translator.New(testProvider.selection(id))
				if err != nil {
					res.err = err
				} else {
					res.ok = p.TestConnection(ctx)
				}

				res.elapsed = time.Since(start)
				results[i] = res
				logger.Debug("connection test",
					zap.String("provider", string(id)),
					zap.Bool("ok", res.ok),
					zap.Duration("elapsed", res.elapsed),
				)
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for _, r := range results {
			switch {
			case r.err != nil:
				failed++
				fmt.Printf("%-16s %s (%v)\n", r.id, color.YellowString("SKIP"), r.err)
			case r.ok:
				fmt.Printf("%-16s %s %s\n", r.id, color.GreenString("OK"), r.elapsed.Round(time.Millisecond))
			default:
				failed++
				fmt.Printf("%-16s %s %s\n", r.id, color.RedString("FAIL"), r.elapsed.Round(time.Millisecond))
			}
		}

		if failed == len(results) {
			return fmt.Errorf("no provider passed the connection test")
		}
		if !testAll && failed > 0 {
			return fmt.Errorf("provider %s failed the connection test", ids[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)

	testProvider.register(testCmd)
	testCmd.Flags().BoolVar(&testAll, "all", false, "Test every provider")
}
