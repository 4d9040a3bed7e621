/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomoncle/dynquery"
	"github.com/tomoncle/dynquery/database"
	"github.com/tomoncle/dynquery/member"
	"github.com/tomoncle/dynquery/types"
	"github.com/tomoncle/dynquery/utils"
)

type cli struct {
	configPath string
	cfg        *AppConfig
	validator  *flagValidator
}

func newRootCmd() *cobra.Command {
	c := &cli{validator: newFlagValidator()}

	root := &cobra.Command{
		Use:           "dynquery",
		Short:         "Search members by optional criteria",
		Long:          `dynquery searches members and their teams. Each filter flag narrows the result only when given.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			utils.ConfigureConsoleLogFormat(cfg.Log.Format)
			utils.ConfigureConsoleOutput(cmd.ErrOrStderr())
			utils.ConfigureLogLevel(cfg.Log.Level)
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./dynquery.yaml)")

	root.AddCommand(c.schemaCmd(), c.seedCmd(), c.searchCmd(), c.pageCmd(), c.statusCmd())
	return root
}

// withService opens the configured database for the duration of fn.
func (c *cli) withService(ctx context.Context, createSchema bool, fn func(dynquery.MemberService) error) error {
	cfg := *c.cfg.ConfigLoader()
	if createSchema {
		cfg.SchemaConfig.CreateOnStartup = true
	}
	if _, err := database.InitDB(ctx, &cfg); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	return fn(dynquery.NewMemberService(database.GetDB()))
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the team and member tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), true, func(dynquery.MemberService) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
				return err
			})
		},
	}
}

type statusOutput struct {
	Health *database.HealthStatus `json:"health"`
	Stats  *database.DBStats      `json:"stats"`
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ping the database and print connection pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), false, func(dynquery.MemberService) error {
				out := statusOutput{
					Health: database.GetHealthStatus(cmd.Context()),
					Stats:  database.GetDatabaseStats(),
				}
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				if !out.Health.Healthy {
					return fmt.Errorf("database unhealthy: %s", out.Health.LastError)
				}
				return nil
			})
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var flags seedFlags
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams and members from a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validator.Validate(flags); err != nil {
				return err
			}
			fixture, err := member.LoadFixtureFile(flags.File)
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), true, func(svc dynquery.MemberService) error {
				if err := svc.Seed(cmd.Context(), fixture); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "seeded %d teams, %d members\n", len(fixture.Teams), len(fixture.Members))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&flags.File, "file", "f", "", "fixture file")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var filter filterFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List every member matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := c.condition(cmd, &filter)
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), false, func(svc dynquery.MemberService) error {
				rows, err := svc.Search(cmd.Context(), cond)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	return cmd
}

func (c *cli) pageCmd() *cobra.Command {
	var filter filterFlags
	var paging pageFlags
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch one page of matching members with the total count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := c.condition(cmd, &filter)
			if err != nil {
				return err
			}
			if err := c.validator.Validate(paging); err != nil {
				return err
			}
			sorts, err := types.ParseSort(paging.Sort)
			if err != nil {
				return err
			}
			strategy, err := dynquery.ParsePageStrategy(paging.Strategy)
			if err != nil {
				return err
			}
			req := types.NewPageRequest(paging.Page, paging.Size, sorts...)

			return c.withService(cmd.Context(), false, func(svc dynquery.MemberService) error {
				page, err := svc.Page(cmd.Context(), cond, req, strategy)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), pageView(page))
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	cmd.Flags().IntVar(&paging.Page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&paging.Size, "size", 10, "page size")
	cmd.Flags().StringVar(&paging.Sort, "sort", "", "sort, e.g. username:desc,age")
	cmd.Flags().StringVar(&paging.Strategy, "strategy", "simple", "count strategy: simple or complex")
	return cmd
}

func bindFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.Username, "username", "", "exact username")
	cmd.Flags().StringVar(&f.Team, "team", "", "exact team name")
	cmd.Flags().Int("age-goe", 0, "minimum age, inclusive")
	cmd.Flags().Int("age-loe", 0, "maximum age, inclusive")
}

// condition reads the filter flags; an age flag counts only when given.
func (c *cli) condition(cmd *cobra.Command, f *filterFlags) (member.SearchCondition, error) {
	var err error
	if f.AgeGoe, err = changedInt(cmd, "age-goe"); err != nil {
		return member.SearchCondition{}, err
	}
	if f.AgeLoe, err = changedInt(cmd, "age-loe"); err != nil {
		return member.SearchCondition{}, err
	}
	if err := c.validator.Validate(f); err != nil {
		return member.SearchCondition{}, err
	}
	return member.SearchCondition{
		Username: f.Username,
		TeamName: f.Team,
		AgeGoe:   f.AgeGoe,
		AgeLoe:   f.AgeLoe,
	}, nil
}

func changedInt(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type pageOutput struct {
	Content    []member.MemberTeamDto `json:"content"`
	Page       int                    `json:"page"`
	Size       int                    `json:"size"`
	Total      int                    `json:"total"`
	TotalPages int                    `json:"totalPages"`
	HasNext    bool                   `json:"hasNext"`
}

func pageView(p *types.Pagination[member.MemberTeamDto]) pageOutput {
	return pageOutput{
		Content:    p.Content,
		Page:       p.Page(),
		Size:       p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
		HasNext:    p.HasNext(),
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
