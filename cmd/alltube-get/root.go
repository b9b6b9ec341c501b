package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"alltube/internal/config"
	"alltube/internal/extractor"
	"alltube/internal/stream"
	"alltube/internal/video"
)

var (
	flagFormat   string
	flagOutput   string
	flagAudio    bool
	flagPassword string
)

var rootCmd = &cobra.Command{
	Use:   "alltube-get URL",
	Short: "Download media from a page URL",
	Long: `alltube-get resolves a web page URL into its media stream and writes
the bytes to a file (named after the source by default) or to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: downloadRun,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "", "Format selector passed to the extractor")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", `Output file ("-" for stdout)`)
	rootCmd.Flags().BoolVarP(&flagAudio, "audio", "a", false, "Convert to audio only")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "Video password")
}

// cliConfig builds configuration for CLI use: defaults plus the binary-path
// environment overrides, without the service's boot logging.
func cliConfig() *config.Config {
	cfg := config.Default()
	if v := os.Getenv("YTDLP_PATH"); v != "" {
		cfg.YtdlpPath = v
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("PHANTOMJS_DIR"); v != "" {
		cfg.PhantomJSDir = v
	}
	return cfg
}

func downloadRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := cliConfig()
	ext := extractor.New(cfg)
	pipeline := stream.NewPipeline(cfg)

	v := video.New(ext, args[0], flagFormat, flagPassword)

	// Resolve metadata first so a password-protected source can prompt
	// before any output is created.
	_, err := v.Metadata(ctx)
	if errors.Is(err, extractor.ErrPasswordRequired) && flagPassword == "" {
		password, perr := promptPassword()
		if perr != nil {
			return perr
		}
		v = video.New(ext, args[0], flagFormat, password)
		_, err = v.Metadata(ctx)
	}
	if err != nil {
		return err
	}

	kind := stream.Raw
	opts := stream.Options{}
	if flagAudio {
		kind = stream.AudioConvert
		opts = stream.Options{AudioBitrate: cfg.AudioBitrate, Format: cfg.AudioFormat}
	} else if kind, err = stream.DefaultKind(ctx, v); err != nil {
		return err
	}

	s, err := pipeline.Open(ctx, v, kind, opts, nil)
	if err != nil {
		return err
	}
	defer s.Body.Close()

	out, name, err := openOutput(ctx, v, s.Ext)
	if err != nil {
		return err
	}

	if name != "" {
		fmt.Fprintf(os.Stderr, "Writing %s\n", name)
	}
	n, err := io.Copy(out, s.Body)
	if closeErr := closeOutput(out); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download failed after %d bytes: %w", n, err)
	}

	fmt.Fprintf(os.Stderr, "Done (%d bytes)\n", n)
	return nil
}

// openOutput picks the destination: an explicit path, stdout for "-", or a
// file named after the resolved source filename.
func openOutput(ctx context.Context, v *video.Video, ext string) (io.Writer, string, error) {
	if flagOutput == "-" {
		return os.Stdout, "", nil
	}

	name := flagOutput
	if name == "" {
		resolved, err := v.FilenameWithExt(ctx, ext)
		if err != nil || resolved == "" {
			resolved = "download." + ext
		}
		name = resolved
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, "", fmt.Errorf("cannot create output file: %w", err)
	}
	return f, name, nil
}

func closeOutput(w io.Writer) error {
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		return f.Close()
	}
	return nil
}

// promptPassword reads the video password from the terminal without echo.
func promptPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("source requires a password; pass one with --password")
	}

	fmt.Fprint(os.Stderr, "Video password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("cannot read password: %w", err)
	}

	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
