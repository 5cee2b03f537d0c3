// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/store/audit"
	donationstore "github.com/dalemusser/bloodconnect/internal/app/store/donations"
	requeststore "github.com/dalemusser/bloodconnect/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodconnect/internal/app/system/mailer"
	"github.com/dalemusser/bloodconnect/internal/app/system/notify"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/app/system/txn"
	"github.com/dalemusser/bloodconnect/internal/app/system/workers"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodrequest"
	"github.com/dalemusser/bloodconnect/internal/domain/donation"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// limiterSweepInterval is how often idle rate-limit buckets are dropped.
const limiterSweepInterval = 5 * time.Minute

// Services are the long-lived collaborators shared by the HTTP handlers and
// the background workers.
type Services struct {
	Users     *userstore.Store
	Donations *donationstore.Store
	Requests  *requeststore.Store
	Audit     *audit.Store

	Search      *donorsearch.Engine
	RequestMgr  *bloodrequest.Manager
	DonationSvc *donation.Service

	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger

	Publisher    *notify.Publisher
	Expiry       *workers.RequestExpiry
	LimiterSweep *workers.LimiterSweep
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the stores and domain services and starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errors.New("startup: DBDeps has no Services holder")
	}

	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("store deadlines configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	svc, err := buildServices(coreCfg, appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.Services = *svc

	deps.Services.Expiry.Start()
	deps.Services.LimiterSweep.Start()
	return nil
}

func buildServices(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Services, error) {
	db := deps.MongoDatabase
	s := &Services{
		Users:     userstore.New(db),
		Donations: donationstore.New(db),
		Requests:  requeststore.New(db),
		Audit:     audit.New(db),
		Limiter:   ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute),
	}
	s.AuditLog = auditlog.New(s.Audit, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	tokens := auth.NewTokens(appCfg.JWTSecret, appCfg.TokenTTL)
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.TokenTTL, secure, tokens, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// The principal is reloaded on every request so role and status
	// changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))
	s.SessionMgr = sessionMgr

	notifier, publisher, err := buildNotifier(appCfg, s.Users, logger)
	if err != nil {
		return nil, err
	}
	s.Publisher = publisher

	s.Search = donorsearch.New(s.Users, appCfg.SearchDefaultLimit)
	s.RequestMgr = bloodrequest.NewManager(bloodrequest.Config{
		Store:         s.Requests,
		Search:        s.Search,
		Notifier:      notifier,
		Sanitize:      htmlsanitize.PlainText,
		NotifyTimeout: timeouts.Long(),
		Log:           logger,
	})

	runner := txn.New(deps.MongoClient, logger)
	s.DonationSvc = donation.NewService(s.Donations, s.Users, runner.Do, htmlsanitize.PlainText)

	s.Expiry = workers.NewRequestExpiry(s.RequestMgr, logger, appCfg.ExpirySweepInterval, appCfg.RequestTTL)
	s.LimiterSweep = workers.NewLimiterSweep(s.Limiter, logger, limiterSweepInterval)
	return s, nil
}

// buildNotifier assembles the configured notification channels. Email and
// broker events are each optional; with neither configured the returned
// notifier is nil and request creation skips notification.
func buildNotifier(appCfg AppConfig, contacts notify.ContactDirectory, logger *zap.Logger) (bloodrequest.Notifier, *notify.Publisher, error) {
	var chans notify.Multi
	var publisher *notify.Publisher

	if appCfg.SendGridAPIKey != "" {
		sender, err := mailer.NewSendGrid(appCfg.SendGridAPIKey, appCfg.MailFrom, appCfg.MailFromName, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("email notifier: %w", err)
		}
		chans = append(chans, notify.NewEmailer(sender, contacts, appCfg.SiteName, logger))
		logger.Info("email notifications enabled", zap.String("from", appCfg.MailFrom))
	}

	if appCfg.RabbitURL != "" {
		p, err := notify.NewPublisher(appCfg.RabbitURL, appCfg.RabbitExchange, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("event publisher: %w", err)
		}
		publisher = p
		chans = append(chans, p)
		logger.Info("broker events enabled", zap.String("exchange", appCfg.RabbitExchange))
	}

	if len(chans) == 0 {
		logger.Info("donor notifications disabled; no email or broker configured")
		return nil, nil, nil
	}
	return chans, publisher, nil
}
