package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Scope names the credential set a command needs.
type Scope string

const (
	ScopeGenerate Scope = "generate"
	ScopeSchedule Scope = "schedule"
	ScopeTrack    Scope = "track"
	ScopeReport   Scope = "report"
	ScopeCatalog  Scope = "catalog"
	ScopeSeed     Scope = "seed"
	ScopeServe    Scope = "serve"
)

// ErrMissingCredentials is returned when required environment variables are absent.
var ErrMissingCredentials = errors.New("missing required configuration")

type aiCredentials struct {
	APIKey string `env:"GEMINI_API_KEY" validate:"required"`
}

type cmsCredentials struct {
	ProjectID string `env:"SANITY_PROJECT_ID" validate:"required"`
	Dataset   string `env:"SANITY_DATASET" validate:"required"`
	Token     string `env:"SANITY_API_TOKEN" validate:"required"`
}

type notionCredentials struct {
	Token      string `env:"NOTION_TOKEN" validate:"required"`
	DatabaseID string `env:"NOTION_DATABASE_ID" validate:"required"`
}

type facebookCredentials struct {
	PageToken string `env:"FACEBOOK_PAGE_ACCESS_TOKEN" validate:"required"`
	PageID    string `env:"FACEBOOK_PAGE_ID" validate:"required"`
}

type commerceCredentials struct {
	URL            string `env:"WOO_COMMERCE_URL" validate:"required,url"`
	ConsumerKey    string `env:"WOO_COMMERCE_CONSUMER_KEY" validate:"required"`
	ConsumerSecret string `env:"WOO_COMMERCE_CONSUMER_SECRET" validate:"required"`
}

type adminCredentials struct {
	APIKey string `env:"ADMIN_API_KEY" validate:"required,min=16"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report environment variable names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks that every credential needed by the given scope is present.
// The returned error lists all missing variables at once.
func (c *Config) Validate(scope Scope) error {
	ai := aiCredentials{APIKey: c.AIApiKey}
	cms := cmsCredentials{ProjectID: c.SanityProjectID, Dataset: c.SanityDataset, Token: c.SanityToken}
	notion := notionCredentials{Token: c.NotionToken, DatabaseID: c.NotionDatabaseID}
	facebook := facebookCredentials{PageToken: c.FacebookPageToken, PageID: c.FacebookPageID}
	commerce := commerceCredentials{URL: c.WooURL, ConsumerKey: c.WooConsumerKey, ConsumerSecret: c.WooConsumerSecret}
	admin := adminCredentials{APIKey: c.AdminAPIKey}

	var required []any
	switch scope {
	case ScopeGenerate:
		required = []any{ai, cms, notion}
	case ScopeSchedule, ScopeTrack:
		required = []any{notion, facebook}
	case ScopeReport:
		required = []any{notion}
	case ScopeCatalog:
		required = []any{cms, commerce}
	case ScopeSeed:
		required = []any{cms}
	case ScopeServe:
		required = []any{ai, cms, notion, admin}
	default:
		return fmt.Errorf("unknown configuration scope %q", scope)
	}

	var problems []string
	for _, creds := range required {
		if err := validate.Struct(creds); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validating %s configuration: %w", scope, err)
			}
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					problems = append(problems, fe.Field())
				} else {
					problems = append(problems, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w for %s: %s", ErrMissingCredentials, scope, strings.Join(problems, ", "))
	}
	return nil
}
