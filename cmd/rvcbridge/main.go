// rvcbridge bridges an RV-C vehicle area network to an MQTT broker.
//
// For protocol and policy details, see SPEC_FULL.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/rvcbridge/internal/discovery"
	"github.com/nerrad567/rvcbridge/internal/infrastructure/audit"
	"github.com/nerrad567/rvcbridge/internal/infrastructure/config"
	"github.com/nerrad567/rvcbridge/internal/infrastructure/logging"
	"github.com/nerrad567/rvcbridge/internal/infrastructure/mqttbus"
	"github.com/nerrad567/rvcbridge/internal/rvc/bridge"
	"github.com/nerrad567/rvcbridge/internal/rvc/codec"
	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
	"github.com/nerrad567/rvcbridge/internal/rvc/ratelimit"
	"github.com/nerrad567/rvcbridge/internal/rvc/registry"
	"github.com/nerrad567/rvcbridge/internal/rvc/transmit"
	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
	"github.com/nerrad567/rvcbridge/internal/transport/slcan"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application's assembled wiring, separated from main for
// testability. Returning an error lets main handle the exit code.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting rvcbridge", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	reg, err := registry.LoadFile(cfg.RVC.SpecFile)
	if err != nil {
		return fmt.Errorf("loading rvc spec: %w", err)
	}
	log.Info("rvc spec loaded", "path", cfg.RVC.SpecFile)

	descriptors, err := entity.LoadMappingFile(cfg.RVC.EntityMappingFile)
	if err != nil {
		return fmt.Errorf("loading entity mapping: %w", err)
	}
	projector := entity.NewProjector(descriptors)
	log.Info("entity mapping loaded", "path", cfg.RVC.EntityMappingFile, "entities", len(descriptors))

	targets, err := codec.LoadTargetsFile(cfg.RVC.TargetsFile)
	if err != nil {
		return fmt.Errorf("loading command targets: %w", err)
	}
	log.Info("command targets loaded", "path", cfg.RVC.TargetsFile, "entities", len(targets))

	policy, err := buildPolicy(cfg.RVC)
	if err != nil {
		return fmt.Errorf("building command policy: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		GlobalRate:       cfg.RVC.GlobalRate,
		EntityRate:       cfg.RVC.EntityRate,
		EntityCooldownMS: time.Duration(cfg.RVC.EntityCooldownMS) * time.Millisecond,
	})
	validator := validate.New(projector, policy, limiter, nil)

	transport, err := slcan.Connect(ctx, slcan.Config{
		Address:           fmt.Sprintf("%s:%d", cfg.Transport.Host, cfg.Transport.Port),
		ConnectTimeout:    cfg.Transport.ConnectTimeout,
		ReadTimeout:       cfg.Transport.ReadTimeout,
		ReconnectInterval: cfg.Transport.ReconnectInterval,
	})
	if err != nil {
		return fmt.Errorf("connecting to rvc transport: %w", err)
	}
	transport.SetLogger(log)
	defer func() {
		log.Info("closing rvc transport")
		if closeErr := transport.Close(); closeErr != nil {
			log.Error("error closing rvc transport", "error", closeErr)
		}
	}()
	log.Info("rvc transport connected", "address", cfg.Transport.Host, "port", cfg.Transport.Port)

	transmitter := transmit.New(&frameWriterAdapter{transport: transport}, transmit.Config{
		RetryCount:   cfg.RVC.RetryCount,
		RetryDelayMS: time.Duration(cfg.RVC.RetryDelayMS) * time.Millisecond,
	})

	mqttClient, err := mqttbus.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to mqtt: %w", err)
	}
	defer func() {
		log.Info("disconnecting from mqtt")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing mqtt", "error", closeErr)
		}
	}()
	log.Info("mqtt connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))

	publisher := mqttbus.NewPublisher(mqttClient)
	subscriber := mqttbus.NewSubscriber(mqttClient)
	if err := subscriber.Start(); err != nil {
		return fmt.Errorf("starting mqtt command subscription: %w", err)
	}

	auditSink, err := audit.Open(audit.Config{
		Path:       cfg.Audit.Path,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer func() {
		log.Info("closing audit log")
		if closeErr := auditSink.Close(); closeErr != nil {
			log.Error("error closing audit log", "error", closeErr)
		}
	}()

	discoveryTopics := mqttbus.Topics{Prefix: cfg.MQTT.Topics.Prefix}
	discoveryPublisher := discovery.NewPublisher(mqttClient, discoveryTopics.Discovery(), cfg.Site.ID)

	rvcBridge, err := bridge.New(bridge.Options{
		Registry:    reg,
		Projector:   projector,
		Validator:   validator,
		Transmitter: transmitter,
		Transport:   transport,
		Publisher:   publisher,
		Subscriber:  subscriber,
		Audit:       auditSink,
		Discovery:   discoveryPublisher,
		Targets:     targets,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		rvcBridge.Stop()
	}()

	log.Info("initialisation complete, bridge running")

	err = rvcBridge.Run(ctx)

	log.Info("shutdown signal received, cleaning up")
	return err
}

// getConfigPath returns the configuration file path, honoring the
// RVC_BRIDGE_CONFIG environment variable override.
func getConfigPath() string {
	if path := os.Getenv("RVC_BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildPolicy translates the YAML-sourced RVCConfig lists into the
// set-keyed PolicyConfig the validator's Stage 4 expects.
func buildPolicy(cfg config.RVCConfig) (validate.PolicyConfig, error) {
	policy := validate.PolicyConfig{}

	if len(cfg.Denylist) > 0 {
		policy.Denylist = make(map[string]bool, len(cfg.Denylist))
		for _, id := range cfg.Denylist {
			policy.Denylist[id] = true
		}
	}
	if len(cfg.Allowlist) > 0 {
		policy.Allowlist = make(map[string]bool, len(cfg.Allowlist))
		for _, id := range cfg.Allowlist {
			policy.Allowlist[id] = true
		}
	}
	if len(cfg.AllowedFamilies) > 0 {
		policy.AllowedFamilies = make(map[validate.Family]bool, len(cfg.AllowedFamilies))
		for _, f := range cfg.AllowedFamilies {
			switch f {
			case "light":
				policy.AllowedFamilies[validate.FamilyLight] = true
			case "climate":
				policy.AllowedFamilies[validate.FamilyClimate] = true
			case "switch":
				policy.AllowedFamilies[validate.FamilySwitch] = true
			default:
				return policy, fmt.Errorf("unknown allowed family %q", f)
			}
		}
	}
	return policy, nil
}

// frameWriterAdapter adapts bridge.FrameTransport's arbID/payload write to
// the Transmitter's FrameWriter, which writes whole codec.Frame values.
type frameWriterAdapter struct {
	transport *slcan.Client
}

func (a *frameWriterAdapter) WriteFrame(ctx context.Context, f codec.Frame) error {
	return a.transport.WriteFrame(ctx, f.ArbID, f.Payload[:])
}
