package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaConfig 描述 Kafka 告警主题。
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaPublisher 通过同步生产者发送告警，以指标作为消息键。
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher 创建同步生产者。
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("Kafka brokers 不能为空")
	}
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 0
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	} else {
		sc.ClientID = "cyberguard"
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}
	return newKafkaPublisher(producer, cfg.Topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "cyberguard.alerts"
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish 实现 Publisher。
func (p *KafkaPublisher) Publish(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepare(&a)
	body, err := encode(a)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(a.Indicator),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(a.Kind)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("发送 Kafka 告警失败: %w", err)
	}
	return nil
}

// Close 关闭生产者。
func (p *KafkaPublisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
