package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/kurasu/internal/cli"
	"github.com/hyperjump/kurasu/internal/config"
	"github.com/hyperjump/kurasu/internal/models"
	"github.com/hyperjump/kurasu/pkg/utils"
)

// backend answers client commands either over HTTP or straight from local storage.
type backend interface {
	Suggest(ctx context.Context, query string) (*models.SuggestResponse, error)
	Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error)
	ProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error)
	Status(ctx context.Context) (*models.Status, error)
}

// httpBackend talks to a running kurasu server.
type httpBackend struct {
	baseURL string
	client  *http.Client
}

func newHTTPBackend(serverURL string) *httpBackend {
	return &httpBackend{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *httpBackend) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := b.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (b *httpBackend) Suggest(ctx context.Context, query string) (*models.SuggestResponse, error) {
	var resp models.SuggestResponse
	if err := b.get(ctx, "/api/v1/suggest", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *httpBackend) Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error) {
	var path string
	switch q.Kind {
	case models.DetailCourse:
		path = "/api/v1/courses/" + url.PathEscape(q.Key) + "/grades"
	case models.DetailProfessor:
		path = "/api/v1/professors/" + url.PathEscape(q.Key) + "/grades"
	default:
		return nil, models.ErrInvalidKind
	}
	params := url.Values{}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Direction != "" {
		params.Set("direction", q.Direction)
	}
	var rows []models.GradeRow
	if err := b.get(ctx, path, params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (b *httpBackend) ProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error) {
	var rating models.ProfessorRating
	if err := b.get(ctx, "/api/v1/professors/rating", url.Values{"name": {name}}, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (b *httpBackend) Status(ctx context.Context) (*models.Status, error) {
	var status models.Status
	if err := b.get(ctx, "/api/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// localBackend serves client commands from the configured database without a server.
type localBackend struct {
	components *Components
	config     *config.Config
}

func (b *localBackend) Suggest(ctx context.Context, query string) (*models.SuggestResponse, error) {
	return b.components.Engine.Suggest(ctx, models.SuggestRequest{Query: query})
}

func (b *localBackend) Details(ctx context.Context, q models.DetailQuery) ([]models.GradeRow, error) {
	return b.components.Engine.Details(ctx, q)
}

func (b *localBackend) ProfessorRating(ctx context.Context, name string) (*models.ProfessorRating, error) {
	return b.components.Engine.ProfessorRating(ctx, name)
}

func (b *localBackend) Status(ctx context.Context) (*models.Status, error) {
	status, err := b.components.Engine.Status(ctx)
	if err != nil {
		return nil, err
	}
	return statusWithDisk(status, b.config), nil
}

// clientFlags are shared by suggest, details, rating and status.
type clientFlags struct {
	configPath *string
	serverURL  *string
	output     *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (direct storage mode)"),
		serverURL:  fs.String("server", defaultServerURL, "server URL; empty for direct storage"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
	}
}

// openBackend returns the backend selected by flags and a cleanup func.
func openBackend(f clientFlags) (backend, func(), error) {
	if *f.serverURL != "" {
		return newHTTPBackend(*f.serverURL), func() {}, nil
	}
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		components.Close()
		_ = logger.Sync()
	}
	return &localBackend{components: components, config: cfg}, cleanup, nil
}

// reorderArgs moves flags (and their values) before positional arguments so that
// "kurasu suggest cse 1310 --output json" parses like "kurasu suggest --output json cse 1310".
func reorderArgs(args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && !isBoolFlag(arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		positional = append(positional, arg)
	}
	return append(flags, positional...)
}

func isBoolFlag(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "watch", "debug":
		return true
	}
	return false
}

// buildQuery joins positional arguments into one query string.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	f := addClientFlags(fs)
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: kurasu suggest [flags] <query>")
		os.Exit(1)
	}
	format := exitOnFormat(*f.output)
	b, cleanup, err := openBackend(f)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	resp, err := b.Suggest(context.Background(), query)
	if err != nil {
		fail(err)
	}
	if err := cli.WriteSuggestions(os.Stdout, resp, format); err != nil {
		fail(err)
	}
}

func runDetails() {
	fs := flag.NewFlagSet("details", flag.ExitOnError)
	f := addClientFlags(fs)
	course := fs.String("course", "", "course key, e.g. \"CSE 1310\"")
	professor := fs.String("professor", "", "professor name")
	sortBy := fs.String("sort", "", "column to sort by")
	direction := fs.String("direction", "", "asc or desc")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	q, err := detailQueryFromFlags(*course, *professor, *sortBy, *direction)
	if err != nil {
		fmt.Println("Usage: kurasu details [flags] --course <key> | --professor <name>")
		os.Exit(1)
	}
	format := exitOnFormat(*f.output)
	b, cleanup, err := openBackend(f)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	rows, err := b.Details(context.Background(), q)
	if err != nil {
		fail(err)
	}
	if err := cli.WriteDetails(os.Stdout, rows, format); err != nil {
		fail(err)
	}
}

// detailQueryFromFlags builds a detail query; professor takes priority over course.
func detailQueryFromFlags(course, professor, sortBy, direction string) (models.DetailQuery, error) {
	q := models.DetailQuery{Sort: sortBy, Direction: direction}
	switch {
	case strings.TrimSpace(professor) != "":
		q.Kind, q.Key = models.DetailProfessor, strings.TrimSpace(professor)
	case strings.TrimSpace(course) != "":
		q.Kind, q.Key = models.DetailCourse, strings.TrimSpace(course)
	default:
		return q, models.ErrEmptyKey
	}
	return q, nil
}

func runRating() {
	fs := flag.NewFlagSet("rating", flag.ExitOnError)
	f := addClientFlags(fs)
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	name := buildQuery(fs.Args())
	if name == "" {
		fmt.Println("Usage: kurasu rating [flags] <professor name>")
		os.Exit(1)
	}
	format := exitOnFormat(*f.output)
	b, cleanup, err := openBackend(f)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	rating, err := b.ProfessorRating(context.Background(), name)
	if err != nil {
		fail(err)
	}
	if err := cli.WriteRating(os.Stdout, rating, format); err != nil {
		fail(err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	f := addClientFlags(fs)
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format := exitOnFormat(*f.output)
	b, cleanup, err := openBackend(f)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	status, err := b.Status(context.Background())
	if err != nil {
		fail(err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fail(err)
	}
}
