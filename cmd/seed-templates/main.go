// Command seed-templates creates or updates the notification templates from a
// YAML file. Without -file it seeds the built-in condominium set.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tmpl "github.com/condo-notify/internal/application/template"
	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/infrastructure/dynamo"
	"github.com/condo-notify/internal/infrastructure/sqlstore"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateFile struct {
	Templates []struct {
		Name   string `yaml:"name"`
		Title  string `yaml:"title"`
		Body   string `yaml:"body"`
		Active *bool  `yaml:"active"`
	} `yaml:"templates"`
}

func main() {
	path := flag.String("file", "", "YAML template file (defaults to the built-in set)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	cfg := config.Load()

	raw := defaultTemplates
	if *path != "" {
		b, err := os.ReadFile(*path)
		if err != nil {
			log.Fatalf("read %s: %v", *path, err)
		}
		raw = b
	}
	templates, err := parseTemplates(raw)
	if err != nil {
		log.Fatalf("parse templates: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, closeRepo, err := openTemplateStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeRepo()

	res, err := tmpl.NewService(repo).Seed(ctx, templates)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("Summary: %d created, %d updated, %d unchanged\n", res.Created, res.Updated, res.Unchanged)
}

// parseTemplates decodes the YAML document. A missing active flag means active.
func parseTemplates(raw []byte) ([]domain.Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("no templates in file")
	}
	out := make([]domain.Template, 0, len(f.Templates))
	for _, t := range f.Templates {
		active := true
		if t.Active != nil {
			active = *t.Active
		}
		out = append(out, domain.Template{
			Name:         t.Name,
			TitlePattern: t.Title,
			BodyPattern:  t.Body,
			Active:       active,
		})
	}
	return out, nil
}

type templateStore interface {
	Get(ctx context.Context, name string) (*domain.Template, error)
	Scan(ctx context.Context) ([]domain.Template, error)
	Put(ctx context.Context, t *domain.Template) error
}

func openTemplateStore(ctx context.Context, cfg *config.Config) (templateStore, func(), error) {
	switch cfg.StoreDriver {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return dynamo.NewTemplateRepo(client, cfg.DynamoTables.Templates), func() {}, nil
	case "postgres", "sqlite":
		db, err := sqlstore.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.NewTemplateRepo(db), func() { _ = sqlstore.Close(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
