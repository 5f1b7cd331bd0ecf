package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Protocol constants shared by every producer and consumer deployment, so
// independently deployed processes interoperate without coordination.
const (
	DefaultBroker    = "b-1.test.7alql0.c5.kafka.us-east-1.amazonaws.com:9092"
	DefaultBrokerTLS = "kafka-bootstrap.twine.limited:443"
	Topic            = "twine.solana.proofs"
	ConsumerGroup    = "solana-proof-consumer"

	DefaultMessageTimeout = 5 * time.Second
)

type SecurityMode string

const (
	SecurityPlaintext SecurityMode = "plaintext"
	SecurityTLS       SecurityMode = "tls"
	SecuritySASL      SecurityMode = "sasl"
)

type TLSConfig struct {
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
}

type SASLConfig struct {
	Mechanism string // PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	Username  string
	Password  string
}

// Config describes one broker connection. Exactly one security mode is
// active; TLS implies mutual-cert auth and bypasses SASL entirely.
type Config struct {
	Brokers        []string
	Security       SecurityMode
	TLS            TLSConfig
	SASL           SASLConfig
	MessageTimeout time.Duration
}

type ConfigJson struct {
	Brokers          []string `json:"brokers"`
	Security         string   `json:"security"`
	CACert           string   `json:"ca_cert"`
	ClientCert       string   `json:"client_cert"`
	ClientKey        string   `json:"client_key"`
	SaslMechanism    string   `json:"sasl_mechanism"`
	SaslUsername     string   `json:"sasl_username"`
	SaslPassword     string   `json:"sasl_password"`
	MessageTimeoutMs int      `json:"message_timeout_ms"`
}

func (cj ConfigJson) ConvertToDomain() Config {
	return Config{
		Brokers:  cj.Brokers,
		Security: SecurityMode(cj.Security),
		TLS: TLSConfig{
			CACertPath:     cj.CACert,
			ClientCertPath: cj.ClientCert,
			ClientKeyPath:  cj.ClientKey,
		},
		SASL: SASLConfig{
			Mechanism: cj.SaslMechanism,
			Username:  cj.SaslUsername,
			Password:  cj.SaslPassword,
		},
		MessageTimeout: time.Duration(cj.MessageTimeoutMs) * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	if c.Security == "" {
		c.Security = SecurityPlaintext
	}
	if len(c.Brokers) == 0 {
		if c.Security == SecurityTLS {
			c.Brokers = []string{DefaultBrokerTLS}
		} else {
			c.Brokers = []string{DefaultBroker}
		}
	}
	if c.MessageTimeout <= 0 {
		c.MessageTimeout = DefaultMessageTimeout
	}
	return c
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.Security != SecurityTLS {
		return nil, nil
	}

	caPEM, err := os.ReadFile(c.TLS.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no usable certificates in %s", c.TLS.CACertPath)
	}

	clientCert, err := tls.LoadX509KeyPair(c.TLS.ClientCertPath, c.TLS.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{clientCert},
	}, nil
}

func (c Config) saslMechanism() (sasl.Mechanism, error) {
	if c.Security != SecuritySASL {
		return nil, nil
	}

	switch strings.ToUpper(c.SASL.Mechanism) {
	case "", "PLAIN":
		return plain.Mechanism{Username: c.SASL.Username, Password: c.SASL.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASL.Username, c.SASL.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASL.Username, c.SASL.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism %q", c.SASL.Mechanism)
	}
}

func (c Config) transport() (*kafkago.Transport, error) {
	tlsCfg, err := c.tlsConfig()
	if err != nil {
		return nil, err
	}
	mechanism, err := c.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &kafkago.Transport{
		TLS:         tlsCfg,
		SASL:        mechanism,
		DialTimeout: c.MessageTimeout,
	}, nil
}

func (c Config) dialer() (*kafkago.Dialer, error) {
	tlsCfg, err := c.tlsConfig()
	if err != nil {
		return nil, err
	}
	mechanism, err := c.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &kafkago.Dialer{
		Timeout:       c.MessageTimeout,
		DualStack:     true,
		TLS:           tlsCfg,
		SASLMechanism: mechanism,
	}, nil
}
