// nolint:ALL
package check_kafka_isr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/jessevdk/go-flags"
	"github.com/mackerelio/checkers"

	"github.com/sni/checkplugins/pkg/plugin"
)

var log = plugin.Log

func init() {
	plugin.AvailableChecks["check_kafka_isr"] = Check
}

type isrOpts struct {
	Brokers      []string `short:"b" long:"broker" description:"Kafka broker address (host:port), can be repeated"`
	Topics       []string `short:"T" long:"topic" description:"Topic to check, default is all non-internal topics"`
	Warning      int64    `short:"w" long:"warning" default:"0" description:"Warn if more than this many partitions are under-replicated"`
	Critical     int64    `short:"c" long:"critical" default:"0" description:"Critical if more than this many partitions are under-replicated"`
	Timeout      int64    `long:"timeout" default:"30" description:"Connection timeout in seconds"`
	KafkaVersion string   `long:"kafka-version" default:"2.1.0" description:"Kafka protocol version to use"`
	Debug        string   `long:"debug" default:"off" description:"Set log level (off, error, debug, trace), logs go to stderr"`
}

// topicDescriber is the slice of sarama.ClusterAdmin used by this check.
type topicDescriber interface {
	ListTopics() (map[string]sarama.TopicDetail, error)
	DescribeTopics(topics []string) ([]*sarama.TopicMetadata, error)
}

// partitionHealth is the replication state of a single topic partition.
type partitionHealth struct {
	topic    string
	id       int32
	replicas int
	inSync   int
	offline  bool
}

// isrResult folds all partition states into the final check result.
type isrResult struct {
	status          checkers.Status
	total           int
	underReplicated []string
	offline         []string
}

// Check checks the in-sync replica state of kafka topic partitions. A
// partition is under-replicated when fewer replicas are in sync than
// assigned and offline when it has no leader.
func Check(_ context.Context, output io.Writer, args []string) int {
	opts, parser, err := parseArgs(args)
	if len(args) == 0 {
		parser.WriteHelp(output)

		return int(checkers.UNKNOWN)
	}
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(output)

			return int(checkers.OK)
		}
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())
		parser.WriteHelp(output)

		return int(checkers.UNKNOWN)
	}

	plugin.SetLogLevel(opts.Debug)

	if err := opts.validate(); err != nil {
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())

		return int(checkers.UNKNOWN)
	}

	admin, err := connect(opts)
	if err != nil {
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())

		return int(checkers.UNKNOWN)
	}
	defer func() {
		if err := admin.Close(); err != nil {
			log.Debugf("closing admin client: %s", err.Error())
		}
	}()

	partitions, err := fetchPartitions(admin, opts.Topics)
	if err != nil {
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())

		return int(checkers.UNKNOWN)
	}

	res := classify(partitions, opts.Warning, opts.Critical)
	fmt.Fprintln(output, res.buildOutput(opts))

	return int(res.status)
}

func parseArgs(args []string) (*isrOpts, *flags.Parser, error) {
	opts := &isrOpts{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "check_kafka_isr"
	parser.Usage = "--broker <host:port> [--broker <host:port> ...] [--topic <name> ...] [-w <int>] [-c <int>]"
	remaining, err := parser.ParseArgs(args)
	if err == nil && len(remaining) > 0 {
		err = fmt.Errorf("unknown argument: %s", remaining[0])
	}

	return opts, parser, err
}

func (opts *isrOpts) validate() error {
	if len(opts.Brokers) == 0 {
		return fmt.Errorf("No broker provided.")
	}
	if opts.Warning < 0 {
		return fmt.Errorf("Warning count must be a non-negative integer.")
	}
	if opts.Critical < 0 {
		return fmt.Errorf("Critical count must be a non-negative integer.")
	}
	if opts.Warning > opts.Critical {
		return fmt.Errorf("Critical count must not be lower than warning count.")
	}

	return nil
}

func connect(opts *isrOpts) (sarama.ClusterAdmin, error) {
	version, err := sarama.ParseKafkaVersion(opts.KafkaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid kafka version %s: %s", opts.KafkaVersion, err.Error())
	}

	conf := sarama.NewConfig()
	conf.ClientID = "check_kafka_isr"
	conf.Version = version
	conf.Net.DialTimeout = time.Duration(opts.Timeout) * time.Second

	admin, err := sarama.NewClusterAdmin(opts.Brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %s", strings.Join(opts.Brokers, ","), err.Error())
	}

	return admin, nil
}

// fetchPartitions resolves the topic list and returns the replication
// state of every partition. Internal topics are skipped unless requested
// explicitly.
func fetchPartitions(admin topicDescriber, topics []string) ([]partitionHealth, error) {
	explicit := len(topics) > 0
	if !explicit {
		details, err := admin.ListTopics()
		if err != nil {
			return nil, fmt.Errorf("listing topics: %s", err.Error())
		}
		for name := range details {
			topics = append(topics, name)
		}
		sort.Strings(topics)
	}
	if len(topics) == 0 {
		return nil, nil
	}

	metadata, err := admin.DescribeTopics(topics)
	if err != nil {
		return nil, fmt.Errorf("describing topics: %s", err.Error())
	}

	partitions := []partitionHealth{}
	for _, topic := range metadata {
		if topic.Err != sarama.ErrNoError {
			return nil, fmt.Errorf("topic %s: %s", topic.Name, topic.Err.Error())
		}
		if topic.IsInternal && !explicit {
			log.Debugf("skipping internal topic: %s", topic.Name)

			continue
		}
		for _, part := range topic.Partitions {
			partitions = append(partitions, partitionHealth{
				topic:    topic.Name,
				id:       part.ID,
				replicas: len(part.Replicas),
				inSync:   len(part.Isr),
				offline:  part.Leader < 0,
			})
		}
	}

	return partitions, nil
}

// classify folds the partition states into one aggregate result. Offline
// partitions are always critical, under-replicated counts are compared
// against the thresholds.
func classify(partitions []partitionHealth, warning, critical int64) *isrResult {
	res := &isrResult{status: checkers.OK, total: len(partitions)}

	for _, part := range partitions {
		name := fmt.Sprintf("%s:%d", part.topic, part.id)
		if part.offline {
			res.offline = append(res.offline, name)
		}
		if part.inSync < part.replicas {
			res.underReplicated = append(res.underReplicated,
				fmt.Sprintf("%s (%d/%d in sync)", name, part.inSync, part.replicas))
		}
	}

	switch {
	case int64(len(res.underReplicated)) > critical:
		res.status = checkers.CRITICAL
	case int64(len(res.underReplicated)) > warning:
		res.status = checkers.WARNING
	}
	if len(res.offline) > 0 {
		res.status = plugin.Escalate(res.status, checkers.CRITICAL)
	}
	if res.total == 0 {
		res.status = checkers.UNKNOWN
	}

	return res
}

func (r *isrResult) buildOutput(opts *isrOpts) string {
	var text string
	switch {
	case r.total == 0:
		text = "no topic partitions found"
	case len(r.offline) > 0 || len(r.underReplicated) > 0:
		segments := []string{}
		if len(r.offline) > 0 {
			segments = append(segments, fmt.Sprintf("%d offline: %s",
				len(r.offline), strings.Join(r.offline, ", ")))
		}
		if len(r.underReplicated) > 0 {
			segments = append(segments, fmt.Sprintf("%d under-replicated: %s",
				len(r.underReplicated), strings.Join(r.underReplicated, ", ")))
		}
		text = fmt.Sprintf("%d partitions checked, %s", r.total, strings.Join(segments, ", "))
	default:
		text = fmt.Sprintf("all %d partitions fully replicated", r.total)
	}

	metrics := []*plugin.CheckMetric{
		{Name: "under_replicated", Value: int64(len(r.underReplicated)), Warning: &opts.Warning, Critical: &opts.Critical, Min: &plugin.Zero},
		{Name: "offline", Value: int64(len(r.offline)), Min: &plugin.Zero},
		{Name: "partitions", Value: int64(r.total), Min: &plugin.Zero},
	}
	perfData := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		perfData = append(perfData, metric.String())
	}

	return fmt.Sprintf("%s - %s | %s", plugin.StateString(r.status), text, strings.Join(perfData, " "))
}
