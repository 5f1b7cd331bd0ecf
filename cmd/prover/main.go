package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
	"github.com/Atamanov/solana-stub-prover/internal/envelope"
	"github.com/Atamanov/solana-stub-prover/internal/kafka"
	"github.com/Atamanov/solana-stub-prover/internal/prover"
	"github.com/Atamanov/solana-stub-prover/internal/solana"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
	"github.com/Atamanov/solana-stub-prover/pkg/utilities"
)

const artifactFile = "last_message.json"

type args struct {
	startSlot      uint64
	endSlot        uint64
	account        string
	execute        bool
	prove          bool
	useCurrentSlot bool
	compressedOnly bool
	noPublish      bool
	rpcURL         string

	kafkaBroker     string
	kafkaTLS        bool
	noKafkaTLS      bool
	kafkaCACert     string
	kafkaClientCert string
	kafkaClientKey  string
	kafkaConfigFile string
}

func parseArgs() args {
	var a args
	flag.Uint64Var(&a.startSlot, "start-slot", 0, "Start slot number")
	flag.Uint64Var(&a.endSlot, "end-slot", 0, "End slot number")
	flag.StringVar(&a.account, "account", "", "Account pubkey to monitor (base58 encoded)")
	flag.BoolVar(&a.execute, "execute", false, "Execute only (no proof generation)")
	flag.BoolVar(&a.prove, "prove", false, "Generate proof")
	flag.BoolVar(&a.useCurrentSlot, "use-current-slot", false, "Use current slot as end slot if not specified")
	flag.BoolVar(&a.compressedOnly, "compressed-only", false, "Generate compressed proof only (faster, not verifiable on-chain)")
	flag.BoolVar(&a.noPublish, "no-publish", false, "Skip publishing the proof to Kafka")
	flag.StringVar(&a.rpcURL, "rpc-url", "", "Solana RPC endpoint (default: devnet)")
	flag.StringVar(&a.kafkaBroker, "kafka-broker", "", "Kafka broker address (overrides default)")
	flag.BoolVar(&a.kafkaTLS, "kafka-tls", true, "Use TLS for the Kafka connection")
	flag.BoolVar(&a.noKafkaTLS, "no-kafka-tls", false, "Disable Kafka TLS (use plain connection)")
	flag.StringVar(&a.kafkaCACert, "kafka-ca-cert", "./ca.crt", "CA certificate file path for Kafka TLS")
	flag.StringVar(&a.kafkaClientCert, "kafka-client-cert", "./user.crt", "Client certificate file path for Kafka TLS")
	flag.StringVar(&a.kafkaClientKey, "kafka-client-key", "./user.key", "Client key file path for Kafka TLS")
	flag.StringVar(&a.kafkaConfigFile, "kafka-config", "", "JSON file with the Kafka connection config (overrides Kafka flags)")
	flag.Parse()
	return a
}

func (a args) kafkaConfig() (kafka.Config, error) {
	if a.kafkaConfigFile != "" {
		return utilities.ReadConfig[kafka.ConfigJson](a.kafkaConfigFile)
	}

	cfg := kafka.Config{}
	if a.kafkaBroker != "" {
		cfg.Brokers = []string{a.kafkaBroker}
	}
	if a.kafkaTLS && !a.noKafkaTLS {
		cfg.Security = kafka.SecurityTLS
		cfg.TLS = kafka.TLSConfig{
			CACertPath:     a.kafkaCACert,
			ClientCertPath: a.kafkaClientCert,
			ClientKeyPath:  a.kafkaClientKey,
		}
	}
	return cfg, nil
}

func main() {
	godotenv.Load()
	log := logger.New()

	a := parseArgs()
	if a.execute == a.prove {
		fmt.Fprintln(os.Stderr, "Error: you must specify either -execute or -prove")
		os.Exit(1)
	}
	if a.account == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain := solana.NewClient(a.rpcURL, log)

	if a.useCurrentSlot && a.endSlot == 0 {
		slot, err := chain.CurrentSlot(ctx)
		utilities.FailOnError(err, "Failed to fetch current slot")
		a.endSlot = slot
		log.Infof("using current slot as end slot: %d", a.endSlot)
	}

	if a.endSlot <= a.startSlot {
		fmt.Fprintln(os.Stderr, "Error: end-slot must be greater than start-slot")
		os.Exit(1)
	}

	log.Infof("fetching account info for %s (slots %d..%d)", a.account, a.startSlot, a.endSlot)
	snapshot, err := chain.FetchAccount(ctx, a.account, a.endSlot)
	utilities.FailOnError(err, "Failed to fetch account info")
	log.Infof("fetched account info at slot %d", snapshot.Slot)

	// The RPC node may answer from a later slot than requested.
	endSlot := a.endSlot
	if snapshot.Slot > endSlot {
		log.Infof("using actual slot %d as end slot (was %d)", snapshot.Slot, endSlot)
		endSlot = snapshot.Slot
	}

	input, err := commitment.BuildInput(a.startSlot, endSlot, []commitment.AccountSnapshot{*snapshot})
	utilities.FailOnError(err, "Failed to build prover input")

	backend := prover.NewLocalBackend(log)

	if a.execute {
		runExecute(ctx, backend, input, log)
		return
	}
	runProve(ctx, backend, input, a, endSlot, log)
}

func runExecute(ctx context.Context, backend prover.Backend, input *commitment.ProverInput, log *logger.Logger) {
	public, report, err := backend.Execute(ctx, input)
	utilities.FailOnError(err, "Execution failed")

	log.Info("program executed successfully")
	printCommitments(public)
	log.Infof("circuit constraints: %d, public value bytes: %d", report.Constraints, report.PublicValueBytes)
}

func runProve(ctx context.Context, backend prover.Backend, input *commitment.ProverInput, a args, endSlot uint64, log *logger.Logger) {
	mode := prover.ModeFinal
	if a.compressedOnly {
		mode = prover.ModeCompressed
	}

	log.Infof("generating %s proof...", mode)
	artifact, err := backend.Prove(ctx, input, mode)
	utilities.FailOnError(err, "Proof generation failed")
	log.Infof("successfully generated %s proof (%d bytes)", mode, len(artifact.Proof))

	env := &envelope.Envelope{
		Identifier: fmt.Sprintf("solana-stub-%d-%d", a.startSlot, endSlot),
		Kind:       envelope.ProofKind{Type: envelope.KindSolanaConsensusProof},
		Data: envelope.ProofData{
			Family: envelope.FamilySP1,
			SP1: &envelope.SP1ProofData{
				Version:         artifact.Version,
				VerificationKey: artifact.VerificationKey,
				Proof:           artifact.Proof,
				PublicValue:     artifact.PublicValue,
			},
		},
	}

	payload, err := envelope.Encode(env)
	utilities.FailOnError(err, "Failed to encode envelope")

	if err := os.WriteFile(artifactFile, payload, 0o644); err != nil {
		log.Errorf(err, "failed to save %s", artifactFile)
	} else {
		log.Infof("message saved to %s (%d bytes)", artifactFile, len(payload))
	}

	if a.noPublish {
		log.Info("publishing skipped")
		return
	}

	cfg, err := a.kafkaConfig()
	utilities.FailOnError(err, "Failed to load Kafka config")

	publisher, err := kafka.NewPublisher(cfg, log)
	utilities.FailOnError(err, "Failed to connect to Kafka")
	defer publisher.Close()

	receipt, err := publisher.Publish(ctx, env)
	utilities.FailOnError(err, "Failed to publish proof to Kafka")
	log.Infof("proof %s published to partition %d at offset %d", env.Identifier, receipt.Partition, receipt.Offset)
}

func printCommitments(pc *commitment.PublicCommitments) {
	out, err := json.MarshalIndent(commitmentsView(pc), "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

// commitmentsView renders digests as hex for console output.
func commitmentsView(pc *commitment.PublicCommitments) map[string]interface{} {
	accounts := make([]map[string]interface{}, 0, len(pc.MonitoredAccountsState))
	for _, account := range pc.MonitoredAccountsState {
		accounts = append(accounts, map[string]interface{}{
			"account_pubkey":    hex.EncodeToString(account.AccountPubkey[:]),
			"last_change_slot":  account.LastChangeSlot,
			"account_data_hash": hex.EncodeToString(account.AccountDataHash[:]),
			"lamports":          account.Lamports,
			"executable":        account.Executable,
			"rent_epoch":        account.RentEpoch,
			"data_size":         len(account.Data),
		})
	}
	return map[string]interface{}{
		"start_slot":               pc.StartSlot,
		"end_slot":                 pc.EndSlot,
		"epoch":                    pc.Epoch,
		"original_bank_hash":       hex.EncodeToString(pc.OriginalBankHash[:]),
		"last_bank_hash":           hex.EncodeToString(pc.LastBankHash[:]),
		"account_data_hash":        hex.EncodeToString(pc.AccountDataHash[:]),
		"hash_root_valset":         hex.EncodeToString(pc.HashRootValset[:]),
		"total_active_stake":       pc.TotalActiveStake,
		"validator_count":          pc.ValidatorCount,
		"monitored_accounts_state": accounts,
		"validations_passed":       pc.ValidationsPassed,
	}
}
