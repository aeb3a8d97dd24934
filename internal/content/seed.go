// Package content holds the portfolio projects shipped with the site.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"portfolio-api/internal/model"
	"portfolio-api/internal/store"
)

// SeedProjects is the default project list. Seeding is repeatable: rows are
// upserted by slug.
var SeedProjects = []model.Project{
	{
		Slug:        "personal-site",
		Title:       "Personal Site",
		Description: "Monorepo personal site with a Go API and React frontend.",
		SortOrder:   10,
		IsFeatured:  true,
	},
	{
		Slug:        "shipping-microservice",
		Title:       "Shipping Microservice",
		Description: "Microservice integrating multiple carrier APIs.",
		SortOrder:   20,
		IsFeatured:  true,
	},
	{
		Slug:        "shodan-ip-tool",
		Title:       "Shodan IP Tool",
		Description: "Backend-proxied Shodan IP intelligence lookup tool.",
		SortOrder:   30,
	},
	{
		Slug:        "rbtree-rankings",
		Title:       "RBTree Player Rankings",
		Description: "C++ rankings backed by a red-black tree.",
		SortOrder:   40,
	},
}

type SeedResult struct {
	Cleared int64
	Created int
	Updated int
}

// Seed upserts projects. With clearFirst set, all existing projects are deleted first.
func Seed(ctx context.Context, projects store.ProjectStore, seed []model.Project, clearFirst bool, logger *slog.Logger) (SeedResult, error) {
	var result SeedResult

	if clearFirst {
		deleted, err := projects.ClearProjects(ctx)
		if err != nil {
			return result, fmt.Errorf("clear projects: %w", err)
		}
		result.Cleared = deleted
		logger.Warn("cleared projects", "deleted", deleted)
	}

	for i := range seed {
		p := seed[i]
		created, err := projects.UpsertProject(ctx, &p)
		if err != nil {
			return result, fmt.Errorf("upsert project %s: %w", p.Slug, err)
		}
		if created {
			result.Created++
			logger.Info("created project", "slug", p.Slug)
		} else {
			result.Updated++
			logger.Info("updated project", "slug", p.Slug)
		}
	}
	return result, nil
}
