package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llamabridge/internal/host"
	"llamabridge/internal/httpapi"
	"llamabridge/pkg/types"
)

func serveCmd(st *settings) *cobra.Command {
	defaultAddr := ""
	if v := os.Getenv("LLAMABRIDGE_ADDR"); v != "" {
		defaultAddr = v
	}
	var (
		addr        string
		model       string
		ctxSize     int
		threads     int
		corsEnabled bool
		corsOrigins string
		corsMethods string
		corsHeaders string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API",
		Example: "  llamabridge serve --addr :8080 --model tinyllama.Q4_K_M.gguf",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if addr != "" {
				cfg.Addr = addr
			}
			if model != "" {
				cfg.Model = model
			}
			if flags.Changed("ctx-size") {
				cfg.ContextSize = ctxSize
			}
			if flags.Changed("threads") {
				cfg.Threads = threads
			}
			if flags.Changed("cors") {
				cfg.CORSEnabled = corsEnabled
			}
			if flags.Changed("cors-origins") {
				cfg.CORSOrigins = splitCSV(corsOrigins)
			}
			if flags.Changed("cors-methods") {
				cfg.CORSMethods = splitCSV(corsMethods)
			}
			if flags.Changed("cors-headers") {
				cfg.CORSHeaders = splitCSV(corsHeaders)
			}
			cfg = cfg.WithDefaults()

			log := newLogger(cfg.LogLevel)
			httpapi.SetLogger(log)
			httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
			httpapi.SetGenerateTimeoutSeconds(int64(cfg.GenerateTimeoutS))
			httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)

			x := newExports(cfg, log)
			defer func() {
				if err := x.Destroy(); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}()
			svc := host.NewService(x, defaultLoadOptions(cfg))
			if cfg.Model != "" {
				if err := svc.Load(cmd.Context(), types.LoadRequest{Model: cfg.Model}); err != nil {
					// Keep serving; the model can be loaded over HTTP.
					log.Error().Err(err).Str("model", cfg.Model).Msg("autoload failed")
				} else {
					log.Info().Str("model", svc.Status().Path).Msg("model loaded")
				}
			}

			baseCtx, cancelBase := context.WithCancel(context.Background())
			defer cancelBase()
			httpapi.SetBaseContext(baseCtx)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(svc),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("llamabridge listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			// Graceful shutdown (Ctrl+C / SIGTERM)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(stop)
			select {
			case err, ok := <-errc:
				if ok {
					return err
				}
				return nil
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}
			cancelBase()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", defaultAddr, "HTTP listen address, e.g. :8080 (defaults LLAMABRIDGE_ADDR or config)")
	f.StringVar(&model, "model", "", "Model ID or path loaded at startup")
	f.IntVar(&ctxSize, "ctx-size", 0, "Default context size for loads")
	f.IntVar(&threads, "threads", 0, "Default thread count for loads")
	f.BoolVar(&corsEnabled, "cors", false, "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed origins")
	f.StringVar(&corsMethods, "cors-methods", "", "Comma-separated allowed methods")
	f.StringVar(&corsHeaders, "cors-headers", "", "Comma-separated allowed headers")
	return cmd
}
