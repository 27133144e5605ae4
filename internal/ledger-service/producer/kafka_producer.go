package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

// Publish envia o evento do ledger; a chave mantém a ordem por usuário (ou partida)
func (p *KafkaPublisher) Publish(ctx context.Context, e events.LedgerEvent) error {
	msg, err := message(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, msg)
}

func message(e events.LedgerEvent) (kafka.Message, error) {
	if e.TsUnixMs == 0 {
		e.TsUnixMs = time.Now().UnixMilli()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(key(e)), Value: b}, nil
}

func key(e events.LedgerEvent) string {
	switch {
	case e.UserID != 0:
		return "user:" + strconv.FormatInt(e.UserID, 10)
	case e.MatchID != 0:
		return "match:" + strconv.FormatInt(e.MatchID, 10)
	default:
		return e.Type
	}
}
