package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Atamanov/solana-stub-prover/internal/envelope"
	"github.com/Atamanov/solana-stub-prover/internal/kafka"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
	"github.com/Atamanov/solana-stub-prover/pkg/utilities"
)

type args struct {
	broker            string
	groupID           string
	fromBeginning     bool
	raw               bool
	minimal           bool
	sasl              bool
	username          string
	password          string
	saslMechanism     string
	connectionTimeout uint
	kafkaConfigFile   string
}

func parseArgs() args {
	var a args
	flag.StringVar(&a.broker, "broker", "", "Kafka broker address (overrides default)")
	flag.StringVar(&a.groupID, "group-id", kafka.ConsumerGroup, "Consumer group ID")
	flag.BoolVar(&a.fromBeginning, "from-beginning", false, "Start from the beginning of the topic")
	flag.BoolVar(&a.raw, "raw", false, "Show raw JSON output")
	flag.BoolVar(&a.minimal, "minimal", false, "Show only proof identifiers")
	flag.BoolVar(&a.sasl, "sasl", false, "Enable SASL authentication")
	flag.StringVar(&a.username, "username", os.Getenv("KAFKA_USERNAME"), "SASL username")
	flag.StringVar(&a.password, "password", os.Getenv("KAFKA_PASSWORD"), "SASL password")
	flag.StringVar(&a.saslMechanism, "sasl-mechanism", "PLAIN", "SASL mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512)")
	flag.UintVar(&a.connectionTimeout, "connection-timeout", 30, "Connection timeout in seconds")
	flag.StringVar(&a.kafkaConfigFile, "kafka-config", "", "JSON file with the Kafka connection config (overrides Kafka flags)")
	flag.Parse()
	return a
}

func (a args) kafkaConfig() (kafka.Config, error) {
	if a.kafkaConfigFile != "" {
		return utilities.ReadConfig[kafka.ConfigJson](a.kafkaConfigFile)
	}

	cfg := kafka.Config{
		MessageTimeout: time.Duration(a.connectionTimeout) * time.Second,
	}
	if a.broker != "" {
		cfg.Brokers = []string{a.broker}
	}
	if a.sasl {
		cfg.Security = kafka.SecuritySASL
		cfg.SASL = kafka.SASLConfig{
			Mechanism: a.saslMechanism,
			Username:  a.username,
			Password:  a.password,
		}
	}
	return cfg, nil
}

func main() {
	godotenv.Load()
	log := logger.New()

	a := parseArgs()
	cfg, err := a.kafkaConfig()
	utilities.FailOnError(err, "Failed to load Kafka config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("starting consumer: topic %s, group %s", kafka.Topic, a.groupID)

	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(a.connectionTimeout)*time.Second)
	err = kafka.Probe(probeCtx, cfg, log)
	cancel()
	utilities.FailOnError(err, "Connection test failed")

	startOffset := kafka.OffsetLatest
	if a.fromBeginning {
		startOffset = kafka.OffsetEarliest
	}

	subscriber, err := kafka.NewSubscriber(cfg, kafka.SubscriberOptions{
		GroupID:     a.groupID,
		StartOffset: startOffset,
	}, log)
	utilities.FailOnError(err, "Failed to create subscriber")
	defer subscriber.Close()

	messageCount := 0
	err = subscriber.Run(ctx, func(env *envelope.Envelope, info kafka.RecordInfo) {
		messageCount++
		printProof(env, info, messageCount, a)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal(err, "Consumer stopped")
	}
	log.Infof("consumer shutting down, processed %d message(s)", messageCount)
}

func printProof(env *envelope.Envelope, info kafka.RecordInfo, count int, a args) {
	if a.minimal {
		fmt.Printf("[%s] proof id: %s\n", time.Now().UTC().Format(time.RFC3339), env.Identifier)
		return
	}
	if a.raw {
		payload, err := envelope.Encode(env)
		if err == nil {
			fmt.Println(string(payload))
			fmt.Println("---")
		}
		return
	}

	fmt.Printf("message #%d | partition: %d | offset: %d | key: %s\n", count, info.Partition, info.Offset, info.Key)
	fmt.Printf("  identifier: %s\n", env.Identifier)
	if env.Kind.Known() {
		if env.Kind.Type == envelope.KindExecutionProof {
			fmt.Printf("  proof kind: %s (%d)\n", env.Kind.Type, env.Kind.ExecutionID)
		} else {
			fmt.Printf("  proof kind: %s\n", env.Kind.Type)
		}
	} else {
		fmt.Printf("  proof kind: %s (unknown)\n", env.Kind.Type)
	}

	if !env.Data.Known() {
		fmt.Printf("  proof family: %s (not understood by this consumer)\n", env.Data.Family)
		return
	}

	sp1 := env.Data.SP1
	fmt.Printf("  proof family: %s, version %d\n", env.Data.Family, sp1.Version)
	fmt.Printf("  verification key: %s\n", hex.EncodeToString(sp1.VerificationKey[:]))
	fmt.Printf("  proof size: %d bytes, public values size: %d bytes\n", len(sp1.Proof), len(sp1.PublicValue))

	public, ok := env.Commitments()
	if !ok {
		fmt.Println("  (unable to decode public commitments)")
		return
	}

	fmt.Printf("  public commitments:\n")
	fmt.Printf("    start slot: %d, end slot: %d, epoch: %d\n", public.StartSlot, public.EndSlot, public.Epoch)
	fmt.Printf("    original bank hash: %s\n", shortHex(public.OriginalBankHash[:]))
	fmt.Printf("    last bank hash: %s\n", shortHex(public.LastBankHash[:]))
	fmt.Printf("    account data hash: %s\n", shortHex(public.AccountDataHash[:]))
	fmt.Printf("    validator set hash: %s\n", shortHex(public.HashRootValset[:]))
	fmt.Printf("    total active stake: %d, validator count: %d\n", public.TotalActiveStake, public.ValidatorCount)
	fmt.Printf("    validations passed: %v\n", public.ValidationsPassed)

	for i, account := range public.MonitoredAccountsState {
		fmt.Printf("    account #%d: %s\n", i+1, shortHex(account.AccountPubkey[:]))
		fmt.Printf("      last change slot: %d, lamports: %d, executable: %v, data size: %d bytes\n",
			account.LastChangeSlot, account.Lamports, account.Executable, len(account.Data))
	}
}

func shortHex(b []byte) string {
	const max = 8
	if len(b) <= max {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(b[:max]), len(b))
}
