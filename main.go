package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Bot/bot/catalog"
	"github.com/tanpawarit/Chative-Order-Bot/bot/channel"
	"github.com/tanpawarit/Chative-Order-Bot/bot/dispatch"
	"github.com/tanpawarit/Chative-Order-Bot/bot/engine"
	"github.com/tanpawarit/Chative-Order-Bot/bot/gateway"
	"github.com/tanpawarit/Chative-Order-Bot/bot/order"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
	"github.com/tanpawarit/Chative-Order-Bot/bot/stats"
	configx "github.com/tanpawarit/Chative-Order-Bot/pkg/config"
	logx "github.com/tanpawarit/Chative-Order-Bot/pkg/logger"
	_ "github.com/tanpawarit/Chative-Order-Bot/pkg/logger/autoload"
)

type AppConfig struct {
	Port                     int           `envconfig:"PORT" default:"3000"`
	CatalogFile              string        `envconfig:"CATALOG_FILE" default:"cardapio.json"`
	SessionTTL               time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	SessionSweepInterval     time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"30m"`
	RetainCartOnOrderFailure bool          `envconfig:"RETAIN_CART_ON_ORDER_FAILURE" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("acao", "inicio_aplicacao").Msg("starting order bot")

	menu := catalog.NewFileStore(appCfg.CatalogFile)
	if err := menu.EnsureExists(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog")
	}
	items, err := menu.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog is unusable")
	}
	log.Info().Str("acao", "cardapio_carregado").Str("arquivo", menu.Path()).Int("itens", len(items)).Msg("catalog loaded")

	orderCfg := configx.MustNew[order.Config]("ORDER_STORE")
	orders, err := order.Open(ctx, *orderCfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", orderCfg.Driver).Msg("failed to open order store")
	}
	defer orders.Close()

	business := configx.MustNew[reply.Business]("BUSINESS")
	texts := reply.MustNew(*business)

	counters := stats.New(time.Now())
	sessions := statex.NewTable(
		statex.WithTTL(appCfg.SessionTTL),
		statex.OnCreate(func(customerID string) {
			log.Info().Str("acao", "sessao_criada").Str("chatId", logx.MaskID(customerID)).Msg("session created")
		}),
	)

	log.Info().Dur("ttl", sessions.TTL()).Dur("intervalo", appCfg.SessionSweepInterval).Msg("session sweeper configured")

	sweeper := statex.NewSweeper(sessions, appCfg.SessionSweepInterval, time.Now)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	eng, err := engine.New(engine.Deps{
		Sessions: sessions,
		Menu:     menu,
		Orders:   orders,
		IDs:      order.NewIDGenerator(time.Now),
		Texts:    texts,
		Recorder: counters,
	}, engine.Config{RetainCartOnOrderFailure: appCfg.RetainCartOnOrderFailure})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build conversation engine")
	}

	channelCfg := configx.MustNew[channel.Config]("CHANNEL")
	outbound := channel.MustNew(*channelCfg)

	dispatchCfg := configx.MustNew[dispatch.Config]("DISPATCH")
	dispatcher, err := dispatch.New(eng, outbound, counters, *dispatchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatcher")
	}
	defer dispatcher.Wait()

	srv := &http.Server{
		Addr: ":" + strconv.Itoa(appCfg.Port),
		Handler: gateway.NewRouter(gateway.Deps{
			Dispatcher: dispatcher,
			Sessions:   sessions,
			Counters:   counters,
			BotName:    "WhatsApp Bot " + business.Name,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("acao", "inicializacao").
		Int("porta", appCfg.Port).
		Str("status", "online").
		Msg("bot listening")

	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Str("acao", "shutdown").Msg("bot stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
