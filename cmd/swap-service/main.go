package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"swapengine/pkg"
	"swapengine/pkg/config"
	"swapengine/pkg/engine"
	"swapengine/pkg/jito"
	"swapengine/pkg/rate"
	"swapengine/pkg/router"
	"swapengine/pkg/sol"
	"swapengine/pkg/wallet"
)

var (
	port      = flag.Int("port", 0, "HTTP server port (defaults to PORT env or 8080)")
	rateLimit = flag.Int("ratelimit", 20, "RPC requests per second per endpoint")
)

type service struct {
	engine     *engine.Engine
	tipMonitor *jito.TipMonitor
	wallet     *wallet.Wallet
	rpcPool    *sol.RPCPool
	logger     *zap.Logger
	startedAt  time.Time
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := config.LoadEnv(".env"); err != nil {
		logger.Warn("could not load .env file", zap.Error(err))
	}
	flag.Parse()
	if *port == 0 {
		*port = config.Port()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoints := config.GetRPCEndpoints()
	if len(endpoints) == 0 {
		logger.Fatal("no RPC endpoints configured, set RPC_ENDPOINTS")
	}

	w, err := wallet.LoadFromEnv()
	if err != nil {
		logger.Fatal("load wallet", zap.Error(err))
	}

	rpcPool, err := sol.NewRPCPool(ctx, endpoints, *rateLimit)
	if err != nil {
		logger.Fatal("init RPC pool", zap.Error(err))
	}

	// The relay must name its tip accounts before any bundle goes out.
	jitoClient := jito.NewClient(config.BlockEngineURL(), logger.Named("jito"))
	if err := jitoClient.InitTipAccounts(); err != nil {
		logger.Fatal("init relay tip accounts", zap.Error(err))
	}

	tipMonitor := jito.NewTipMonitor(config.TipStreamURL(), logger.Named("tip-monitor"))
	go tipMonitor.Run(ctx)

	eng := engine.NewEngine(
		rpcPool,
		w,
		router.NewRouter(logger.Named("router")),
		jitoClient,
		tipMonitor,
		rate.NewHTTPSource(""),
		engine.Config{
			TipPercentile:   config.TipPercentile(),
			MinTipLamports:  config.MinTipLamports(),
			StrictFreshness: config.QuoteFreshness() == "strict",
		},
		logger.Named("engine"),
	)

	svc := &service{
		engine:     eng,
		tipMonitor: tipMonitor,
		wallet:     w,
		rpcPool:    rpcPool,
		logger:     logger,
		startedAt:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/swap", svc.handleSwap)
	mux.HandleFunc("GET /api/price/{mint}", svc.handlePrice)
	mux.HandleFunc("GET /api/coins/{mint}", svc.handleCoin)
	mux.HandleFunc("GET /api/pool/{pool_id}", svc.handlePool)
	mux.HandleFunc("GET /api/pool_info/{token_address}", svc.handlePoolByMint)
	mux.HandleFunc("GET /api/token_accounts", svc.handleTokenAccounts)
	mux.HandleFunc("GET /api/token_accounts/{mint}", svc.handleTokenAccount)
	mux.HandleFunc("GET /health", svc.handleHealth)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: corsMiddleware(mux),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
		cancel()
	}()

	logger.Info("swap service listening",
		zap.Int("port", *port),
		zap.String("wallet", w.PublicKey().String()),
		zap.Int("rpc_endpoints", rpcPool.Size()),
		zap.String("quote_freshness", config.QuoteFreshness()))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func (s *service) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req pkg.SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.engine.Execute(r.Context(), &req)
	if err != nil {
		s.logger.Error("swap failed",
			zap.String("mint", req.Mint),
			zap.String("direction", string(req.Direction)),
			zap.Error(err))
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}

	s.logger.Info("swap executed",
		zap.String("mint", req.Mint),
		zap.String("direction", string(req.Direction)),
		zap.String("venue", string(result.Venue)),
		zap.String("signature", result.Signature),
		zap.String("bundle_id", result.BundleID))
	writeJSON(w, result)
}

func (s *service) handlePrice(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.QuotePrice(r.Context(), r.PathValue("mint"))
	if err != nil {
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}
	writeJSON(w, info)
}

func (s *service) handleCoin(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.GetCoin(r.Context(), r.PathValue("mint"))
	if err != nil {
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}
	writeJSON(w, info)
}

func (s *service) handlePool(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.GetPool(r.Context(), r.PathValue("pool_id"))
	if err != nil {
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}
	writeJSON(w, info)
}

func (s *service) handlePoolByMint(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.GetPoolByMint(r.Context(), r.PathValue("token_address"))
	if err != nil {
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}
	writeJSON(w, info)
}

func (s *service) handleTokenAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.engine.TokenAccount(r.Context(), r.PathValue("mint"))
	if err != nil {
		writeError(w, err.Error(), swapStatusCode(err))
		return
	}
	writeJSON(w, account)
}

func (s *service) handleTokenAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.engine.TokenAccounts(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, accounts)
}

func (s *service) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:       "healthy",
		Wallet:       s.wallet.PublicKey().String(),
		RPCEndpoints: s.rpcPool.Size(),
		StartedAt:    s.startedAt,
		Uptime:       time.Since(s.startedAt).Round(time.Second).String(),
	}
	if tips, err := s.tipMonitor.Current(); err == nil {
		health.TipStreamAge = time.Since(tips.ReceivedAt).Round(time.Second).String()
	}
	writeJSON(w, health)
}

// swapStatusCode maps the error taxonomy onto HTTP statuses.
func swapStatusCode(err error) int {
	switch {
	case errors.Is(err, pkg.ErrNotFound), errors.Is(err, pkg.ErrNoVenueFound):
		return http.StatusNotFound
	case errors.Is(err, pkg.ErrSlippageExceeded):
		return http.StatusConflict
	case errors.Is(err, pkg.ErrDecode):
		return http.StatusBadGateway
	case errors.Is(err, pkg.ErrOutcomeUnknown):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
