package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/mirror"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// PasswordEnv is read when --password is not given
const PasswordEnv = "GALLERY_ADMIN_PASSWORD"

var errPasswordRequired = errors.New("admin password required: pass --password or set " + PasswordEnv + " (ADMIN_PASSWORD_HASH cannot be used to log in)")

type mirrorOptions struct {
	baseURL  string
	dir      string
	admin    bool
	username string
	password string
}

// credentials picks the login pair. With only a password hash configured the plain
// password has to come from the flag or the environment.
func (o *mirrorOptions) credentials(cfg *config.Config) (string, string, error) {
	username := o.username
	if username == "" {
		username = cfg.Admin.Username
	}
	password := o.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if password == "" && cfg.Admin.PasswordHash == "" {
		password = cfg.Admin.Password
	}
	if password == "" {
		return "", "", errPasswordRequired
	}
	return username, password, nil
}

// connect opens the mirror and builds a client. With admin set it logs in first; a
// login that fails because the API is unreachable is not fatal, so writes can still
// land in the mirror.
func (o *mirrorOptions) connect(ctx context.Context, admin bool) (*mirror.Client, *logger.Logger, error) {
	cfg, appLogger := loadConfig()

	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	m, err := mirror.Open(o.dir)
	if err != nil {
		return nil, appLogger, err
	}
	client := mirror.NewClient(baseURL, m, mirror.WithLogger(appLogger))

	if !admin && !o.admin {
		return client, appLogger, nil
	}
	username, password, err := o.credentials(cfg)
	if err != nil {
		return nil, appLogger, err
	}
	if err := client.Login(ctx, username, password); err != nil {
		var apiErr *mirror.APIError
		if errors.As(err, &apiErr) {
			return nil, appLogger, err
		}
		appLogger.Warnw("Login failed, continuing against the mirror only", "error", err.Error())
	}
	return client, appLogger, nil
}

// NewMirrorCommand creates the mirror command with its subcommands
func NewMirrorCommand() *cobra.Command {
	opts := &mirrorOptions{}

	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Local mirror commands",
		Long:  "Keep a local copy of the gallery collections that stays readable and writable while the API is down",
	}
	flags := mirrorCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "", "gallery API base URL (default http://localhost:<port>)")
	flags.StringVar(&opts.dir, "dir", ".gallery-mirror", "mirror directory")
	flags.BoolVar(&opts.admin, "admin", false, "log in to mirror sales and contacts")
	flags.StringVar(&opts.username, "user", "", "admin username (default ADMIN_USERNAME)")
	flags.StringVar(&opts.password, "password", "", "admin password (default $"+PasswordEnv+", then ADMIN_PASSWORD)")

	mirrorCmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Copy every collection from the API into the mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(cmd, opts, false)
		},
	})

	mirrorCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Pull once, then follow the change feed until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(cmd, opts, true)
		},
	})

	mirrorCmd.AddCommand(newMirrorGetCommand(opts))
	mirrorCmd.AddCommand(newArtworksCommand(opts))
	mirrorCmd.AddCommand(newSalesCommand(opts))
	mirrorCmd.AddCommand(newCartCommand(opts))

	return mirrorCmd
}

func runMirror(cmd *cobra.Command, opts *mirrorOptions, watch bool) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	client, appLogger, err := opts.connect(ctx, false)
	defer appLogger.Close()
	if err != nil {
		return err
	}

	pulled, err := client.Pull(ctx)
	if err != nil {
		return err
	}
	for _, r := range pulled {
		fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s -> %s\n", r.Path, r.Key)
	}
	if !watch {
		return nil
	}

	return client.Watch(ctx, func(event ports.ChangeEvent) {
		appLogger.Infow("Collection changed",
			"collection", event.Collection,
			"action", event.Action,
			"id", event.ID,
		)
	})
}

func newMirrorGetCommand(opts *mirrorOptions) *cobra.Command {
	var valid []string
	for _, r := range mirror.Resources() {
		valid = append(valid, r.Collection)
	}

	return &cobra.Command{
		Use:       "get <collection>",
		Short:     "Print a collection from the API, the mirror or the seed data",
		Long:      "Read a collection from the API and refresh the mirror. When the API is unreachable the mirror copy is printed, or the built-in seed data when the mirror has none. The source is reported on stderr.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resource, _ := mirror.ResourceFor(args[0])
			client, appLogger, err := opts.connect(ctx, resource.Admin)
			defer appLogger.Close()
			if err != nil {
				return err
			}

			value, source, err := readCollection(ctx, client, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", source)
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
}

func readCollection(ctx context.Context, client *mirror.Client, collection string) (interface{}, mirror.Source, error) {
	var (
		value  interface{}
		source mirror.Source
		err    error
	)
	switch collection {
	case "artworks":
		value, source, err = client.Artworks(ctx)
	case "hero-slides":
		value, source, err = client.HeroSlides(ctx)
	case "content":
		value, source, err = client.Content(ctx)
	case "collage":
		value, source, err = client.Collage(ctx)
	case "settings":
		value, source, err = client.Settings(ctx)
	case "sales":
		value, source, err = client.Sales(ctx)
	case "contacts":
		value, source, err = client.Contacts(ctx)
	default:
		err = fmt.Errorf("unknown collection %q", collection)
	}
	return value, source, err
}

func newArtworksCommand(opts *mirrorOptions) *cobra.Command {
	artworksCmd := &cobra.Command{
		Use:   "artworks",
		Short: "Change artworks through the API, keeping the mirror in step",
	}

	artworksCmd.AddCommand(&cobra.Command{
		Use:   "add [file]",
		Short: "Add an artwork from a JSON file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var artwork entities.Artwork
			if err := readInput(cmd, args, &artwork); err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return client.CreateArtwork(ctx, artwork)
			})
		},
	})

	artworksCmd.AddCommand(&cobra.Command{
		Use:   "update [file]",
		Short: "Replace an artwork with the JSON file contents, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var artwork entities.Artwork
			if err := readInput(cmd, args, &artwork); err != nil {
				return err
			}
			if artwork.ID == "" {
				return entities.ErrMissingID
			}
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return client.UpdateArtwork(ctx, artwork)
			})
		},
	})

	artworksCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an artwork",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return map[string]string{"deleted": args[0]}, client.DeleteArtwork(ctx, args[0])
			})
		},
	})

	return artworksCmd
}

func newSalesCommand(opts *mirrorOptions) *cobra.Command {
	salesCmd := &cobra.Command{
		Use:   "sales",
		Short: "Change sales through the API, keeping the mirror in step",
	}

	salesCmd.AddCommand(&cobra.Command{
		Use:   "add [file]",
		Short: "Add a sale from a JSON file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sale entities.Sale
			if err := readInput(cmd, args, &sale); err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return client.CreateSale(ctx, sale)
			})
		},
	})

	salesCmd.AddCommand(&cobra.Command{
		Use:   "update [file]",
		Short: "Replace a sale with the JSON file contents, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sale entities.Sale
			if err := readInput(cmd, args, &sale); err != nil {
				return err
			}
			if sale.ID == "" {
				return entities.ErrMissingID
			}
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return client.UpdateSale(ctx, sale)
			})
		},
	})

	salesCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, client *mirror.Client) (interface{}, error) {
				return map[string]string{"deleted": args[0]}, client.DeleteSale(ctx, args[0])
			})
		},
	})

	return salesCmd
}

func newCartCommand(opts *mirrorOptions) *cobra.Command {
	var framing string

	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Edit the local shopping cart kept in the mirror",
	}
	cartCmd.PersistentFlags().StringVar(&framing, "framing", "", "frame colour: Light, Medium or Dark (default no frame)")

	local := func(run func(client *mirror.Client, framing entities.Framing) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, appLogger, err := opts.connect(ctx, false)
			defer appLogger.Close()
			if err != nil {
				return err
			}
			value, err := run(client, entities.Framing(framing))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		}
	}

	cartCmd.AddCommand(&cobra.Command{
		Use:   "add <artwork-id>",
		Short: "Add one unit of an artwork",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return local(func(client *mirror.Client, f entities.Framing) (interface{}, error) {
				return client.AddToCart(args[0], f)
			})(cmd, args)
		},
	})

	cartCmd.AddCommand(&cobra.Command{
		Use:   "remove <artwork-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return local(func(client *mirror.Client, f entities.Framing) (interface{}, error) {
				return client.RemoveFromCart(args[0], f)
			})(cmd, args)
		},
	})

	cartCmd.AddCommand(&cobra.Command{
		Use:   "set <artwork-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return local(func(client *mirror.Client, f entities.Framing) (interface{}, error) {
				return client.UpdateCartQuantity(args[0], f, quantity)
			})(cmd, args)
		},
	})

	cartCmd.AddCommand(&cobra.Command{
		Use:   "quote",
		Short: "Price the cart, through the API when it is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, appLogger, err := opts.connect(ctx, false)
			defer appLogger.Close()
			if err != nil {
				return err
			}
			quote, source, err := client.QuoteCart(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", source)
			return printJSON(cmd.OutOrStdout(), quote)
		},
	})

	cartCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return local(func(client *mirror.Client, _ entities.Framing) (interface{}, error) {
				return entities.Cart{Lines: []entities.CartLine{}}, client.ClearCart()
			})(cmd, args)
		},
	})

	return cartCmd
}

// withAdmin logs in, runs an admin write and prints its result. A write that only
// reached the mirror is printed too, and its ErrOffline is returned so the exit status
// reports it.
func withAdmin(cmd *cobra.Command, opts *mirrorOptions, run func(context.Context, *mirror.Client) (interface{}, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, appLogger, err := opts.connect(ctx, true)
	defer appLogger.Close()
	if err != nil {
		return err
	}

	value, err := run(ctx, client)
	if err != nil && !errors.Is(err, mirror.ErrOffline) {
		return err
	}
	if printErr := printJSON(cmd.OutOrStdout(), value); printErr != nil {
		return printErr
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "API unreachable, change kept in the mirror only\n")
	}
	return err
}

func readInput(cmd *cobra.Command, args []string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
