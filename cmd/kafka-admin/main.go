package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Atamanov/solana-stub-prover/internal/kafka"
	"github.com/Atamanov/solana-stub-prover/pkg/utilities"
)

type connFlags struct {
	broker     string
	tls        bool
	noTLS      bool
	caCert     string
	clientCert string
	clientKey  string
}

func registerConnFlags(fs *flag.FlagSet) *connFlags {
	var f connFlags
	fs.StringVar(&f.broker, "broker", "", "Kafka broker address (overrides default)")
	fs.BoolVar(&f.tls, "tls", true, "Use TLS connection")
	fs.BoolVar(&f.noTLS, "no-tls", false, "Disable TLS (use plain connection)")
	fs.StringVar(&f.caCert, "ca-cert", "./ca.crt", "CA certificate file path")
	fs.StringVar(&f.clientCert, "client-cert", "./user.crt", "Client certificate file path")
	fs.StringVar(&f.clientKey, "client-key", "./user.key", "Client key file path")
	return &f
}

func (f *connFlags) config() kafka.Config {
	cfg := kafka.Config{}
	if f.broker != "" {
		cfg.Brokers = []string{f.broker}
	}
	if f.tls && !f.noTLS {
		cfg.Security = kafka.SecurityTLS
		cfg.TLS = kafka.TLSConfig{
			CACertPath:     f.caCert,
			ClientCertPath: f.clientCert,
			ClientKeyPath:  f.clientKey,
		}
	}
	return cfg
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: kafka-admin <command> [flags]

Commands:
  list       List all topics
  check      Check if a topic exists (-topic)
  create     Create a topic (-topic, -partitions, -replication-factor)
  metadata   Describe a topic's partition layout (-topic)`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		conn := registerConnFlags(fs)
		fs.Parse(os.Args[2:])

		admin := mustAdmin(conn)
		defer admin.Close()

		topics, err := admin.ListTopics(ctx)
		utilities.FailOnError(err, "Failed to list topics")
		fmt.Printf("%d topic(s):\n", len(topics))
		for _, topic := range topics {
			fmt.Printf("  %s (%d partition(s))\n", topic.Name, topic.Partitions)
		}

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		conn := registerConnFlags(fs)
		topic := fs.String("topic", kafka.Topic, "Topic name to check")
		fs.Parse(os.Args[2:])

		admin := mustAdmin(conn)
		defer admin.Close()

		exists, err := admin.TopicExists(ctx, *topic)
		utilities.FailOnError(err, "Failed to check topic")
		if exists {
			fmt.Printf("topic %s exists\n", *topic)
		} else {
			fmt.Printf("topic %s does not exist\n", *topic)
			os.Exit(1)
		}

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		conn := registerConnFlags(fs)
		topic := fs.String("topic", kafka.Topic, "Topic name to create")
		partitions := fs.Int("partitions", 3, "Number of partitions")
		replication := fs.Int("replication-factor", 1, "Replication factor")
		fs.Parse(os.Args[2:])

		admin := mustAdmin(conn)
		defer admin.Close()

		err := admin.CreateTopic(ctx, *topic, *partitions, *replication)
		utilities.FailOnError(err, "Failed to create topic")
		fmt.Printf("created topic %s with %d partition(s)\n", *topic, *partitions)

	case "metadata":
		fs := flag.NewFlagSet("metadata", flag.ExitOnError)
		conn := registerConnFlags(fs)
		topic := fs.String("topic", kafka.Topic, "Topic to describe")
		fs.Parse(os.Args[2:])

		admin := mustAdmin(conn)
		defer admin.Close()

		leaders, err := admin.DescribeTopic(ctx, *topic)
		utilities.FailOnError(err, "Failed to describe topic")
		fmt.Printf("topic %s:\n", *topic)
		for partition, leader := range leaders {
			fmt.Printf("  partition %d: leader %s\n", partition, leader)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func mustAdmin(conn *connFlags) *kafka.Admin {
	admin, err := kafka.NewAdmin(conn.config())
	utilities.FailOnError(err, "Failed to create admin client")
	return admin
}
