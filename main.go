package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WoCha-FR/mqtt4netatmo/internal/bridge"
	"github.com/WoCha-FR/mqtt4netatmo/internal/metrics"
	"github.com/WoCha-FR/mqtt4netatmo/internal/sink"
	"github.com/WoCha-FR/mqtt4netatmo/netatmo"
)

type MQTTConfig struct {
	Server    string `json:"server"`
	Port      int    `json:"port,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	TopicRoot string `json:"topic_root"`
}

type InfluxConfig struct {
	Enabled             bool   `json:"enabled"`
	Server              string `json:"server"`
	Org                 string `json:"org,omitempty"`
	User                string `json:"user,omitempty"`
	Pass                string `json:"password,omitempty"`
	Token               string `json:"token,omitempty"`
	Bucket              string `json:"bucket"`
	HealthCheckDisabled bool   `json:"health_check_disabled"`
}

// TokenConfig optionally warm-starts authentication from a previously
// obtained token, so a restart can use the refresh grant instead of sending
// the password again. Tokens are never written back; token state is memory
// resident only.
type TokenConfig struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Config describes the mqtt4netatmo program's configuration.
// It is used to parse the configuration JSON file.
type Config struct {
	ClientID        string       `json:"client_id"`
	ClientSecret    string       `json:"client_secret"`
	Username        string       `json:"username"`
	Password        string       `json:"password"`
	PollIntervalSec int          `json:"poll_interval_seconds,omitempty"`
	Token           TokenConfig  `json:"token"`
	MQTT            MQTTConfig   `json:"mqtt"`
	Influx          InfluxConfig `json:"influx"`
	MetricsAddr     string       `json:"metrics_addr,omitempty"`
}

const influxTimeout = 3 * time.Second

var version = "<dev>"

// healthMessage renders the optional message of an InfluxDB health response;
// the server omits it on some failure statuses.
func healthMessage(m *string) string {
	if m == nil {
		return "(no message)"
	}
	return *m
}

func main() {
	configFile := flag.String("config", "", "Configuration JSON file.")
	listDevices := flag.Bool("list-devices", false, "List stations, modules and air quality devices, then exit.")
	printVersion := flag.Bool("version", false, "Print version and exit.")
	flag.Parse()

	if *printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *configFile == "" {
		fmt.Println("-config is required.")
		os.Exit(1)
	}

	config := Config{}
	cfgBytes, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("Unable to read config file '%s': %s", *configFile, err)
	}
	if err = json.Unmarshal(cfgBytes, &config); err != nil {
		log.Fatalf("Unable to parse config file '%s': %s", *configFile, err)
	}

	client, err := netatmo.NewClient(netatmo.Credentials{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Username:     config.Username,
		Password:     config.Password,
	})
	if err != nil {
		log.Fatalf("Invalid credentials in config file: %s", err)
	}

	if *listDevices {
		if err := client.Connect(config.Token.AccessToken, config.Token.RefreshToken, config.Token.ExpiresAt); err != nil {
			log.Fatal(err)
		}
		stations, err := client.GetStationsData("", false)
		if err != nil {
			log.Fatal(err)
		}
		for _, s := range stations {
			fmt.Printf("'%s' (%s): ID %s\n", s.StationName, s.Type, s.ID)
			for _, m := range s.Modules {
				fmt.Printf("  '%s' (%s): ID %s\n", m.ModuleName, m.Type, m.ID)
			}
		}
		aircares, err := client.GetHomeCoachData("")
		if err != nil {
			log.Fatal(err)
		}
		for _, a := range aircares {
			fmt.Printf("'%s' (%s): ID %s\n", a.StationName, a.Type, a.ID)
		}
		os.Exit(0)
	}

	if config.MQTT.Server == "" || config.MQTT.TopicRoot == "" {
		log.Fatalf("mqtt server and topic_root must be set in the config file.")
	}

	opts := mqtt.NewClientOptions()
	port := config.MQTT.Port
	if port == 0 {
		port = 1883 // Default MQTT port
	}
	broker := fmt.Sprintf("tcp://%s:%d", config.MQTT.Server, port)
	opts.AddBroker(broker)
	if config.MQTT.Username != "" {
		opts.SetUsername(config.MQTT.Username)
		opts.SetPassword(config.MQTT.Password)
	}
	opts.SetClientID(fmt.Sprintf("mqtt4netatmo_%d", time.Now().Unix()))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	mqttClient := mqtt.NewClient(opts)
	if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Failed to connect to MQTT broker: %v", token.Error())
	}
	log.Printf("Connected to MQTT broker at %s", broker)

	sinks := sink.Multi{sink.NewMQTT(mqttClient, config.MQTT.TopicRoot)}

	var influxClient influxdb2.Client
	if config.Influx.Enabled {
		if config.Influx.Server == "" || config.Influx.Bucket == "" {
			log.Fatalf("influx is enabled but server or bucket is not set in the config file.")
		}
		authString := ""
		if config.Influx.User != "" || config.Influx.Pass != "" {
			authString = fmt.Sprintf("%s:%s", config.Influx.User, config.Influx.Pass)
		} else if config.Influx.Token != "" {
			authString = config.Influx.Token
		}
		influxClient = influxdb2.NewClient(config.Influx.Server, authString)
		if !config.Influx.HealthCheckDisabled {
			ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
			defer cancel()
			health, err := influxClient.Health(ctx)
			if err != nil {
				log.Fatalf("failed to check InfluxDB health: %v", err)
			}
			if health.Status != "pass" {
				log.Fatalf("InfluxDB did not pass health check: status %s; message '%s'", health.Status, healthMessage(health.Message))
			}
		}
		sinks = append(sinks, sink.NewInflux(influxClient.WriteAPIBlocking(config.Influx.Org, config.Influx.Bucket)))
		log.Printf("Connected to InfluxDB at %s", config.Influx.Server)
	}

	pollerOpts := []bridge.Option{
		bridge.WithWarmToken(config.Token.AccessToken, config.Token.RefreshToken, config.Token.ExpiresAt),
	}
	if config.PollIntervalSec > 0 {
		pollerOpts = append(pollerOpts, bridge.WithInterval(time.Duration(config.PollIntervalSec)*time.Second))
	}
	if config.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		pollerOpts = append(pollerOpts, bridge.WithMetrics(metrics.New(reg)))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(config.MetricsAddr, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
		log.Printf("Serving metrics on %s/metrics", config.MetricsAddr)
	}

	poller := bridge.NewPoller(client, sinks, pollerOpts...)
	stop, err := poller.Start()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Polling Netatmo devices")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("Shutting down")
	stop()
	mqttClient.Disconnect(250)
	if influxClient != nil {
		influxClient.Close()
	}
}
