// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package kafka streams records onto Kafka topics, one topic per entity
// kind. Messages are keyed by the record's stable key, so on log compacted
// topics a second load leaves one message per record.
package kafka

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/json"
	"github.com/pkg/errors"
)

// Store is an ecomgen.Store producing to Kafka.
type Store struct {
	Hosts       []string
	TopicPrefix string

	// MaxMessageBytes is the largest message the producer sends.
	MaxMessageBytes int

	newProducer func(hosts []string, conf *sarama.Config) (sarama.SyncProducer, error)
}

// NewStore returns a Store for the brokers in hosts.
func NewStore(hosts []string, topicPrefix string) *Store {
	return &Store{
		Hosts:           hosts,
		TopicPrefix:     topicPrefix,
		MaxMessageBytes: 1000000,
	}
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return "kafka" }

// Topic returns the topic records of kind k are sent to.
func (s *Store) Topic(k ecomgen.Kind) string {
	return s.TopicPrefix + k.Collection()
}

func (s *Store) config(ctx context.Context) *sarama.Config {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.ClientID = "ecomgen"
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.MaxMessageBytes = s.MaxMessageBytes
	if dl, ok := ctx.Deadline(); ok {
		conf.Net.DialTimeout = time.Until(dl)
	}
	return conf
}

// Connect implements ecomgen.Store. Creating the producer fetches metadata,
// so unreachable brokers fail here.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	newProducer := s.newProducer
	if newProducer == nil {
		newProducer = sarama.NewSyncProducer
	}
	p, err := newProducer(s.Hosts, s.config(ctx))
	if err != nil {
		return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: errors.Wrap(err, "getting new producer")}
	}
	return &writer{s: s, p: p}, nil
}

// jsonRecord implements sarama.Encoder for records using json.
type jsonRecord struct {
	data []byte
}

func (r jsonRecord) Encode() ([]byte, error) { return r.data, nil }
func (r jsonRecord) Length() int             { return len(r.data) }

type writer struct {
	s *Store
	p sarama.SyncProducer
}

// WriteBatch sends recs in one request per broker. Messages the brokers
// refuse as too large or corrupt are rejected; other failures are fatal.
func (w *writer) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	msgs := make([]*sarama.ProducerMessage, 0, len(recs))
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic:    w.s.Topic(rec.Kind()),
			Key:      sarama.StringEncoder(rec.Key()),
			Value:    jsonRecord{data: data},
			Metadata: i,
		})
	}
	if len(msgs) == 0 {
		return res, nil
	}
	err := w.p.SendMessages(msgs)
	if err == nil {
		res.Inserted += len(msgs)
		return res, nil
	}
	perrs, ok := err.(sarama.ProducerErrors)
	if !ok {
		return res, &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: errors.Wrap(err, "sending messages")}
	}
	for _, perr := range perrs {
		if !isRecordError(perr.Err) {
			return res, &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: errors.Wrapf(perr.Err, "sending to %s", perr.Msg.Topic)}
		}
	}
	for _, perr := range perrs {
		rec := recs[perr.Msg.Metadata.(int)]
		res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, perr.Err))
	}
	res.Inserted += len(msgs) - len(perrs)
	return res, nil
}

// isRecordError reports whether err is about one message rather than the
// cluster.
func isRecordError(err error) bool {
	switch err {
	case sarama.ErrMessageSizeTooLarge, sarama.ErrInvalidMessage, sarama.ErrInvalidMessageSize:
		return true
	}
	return false
}

func (w *writer) Close() error {
	return errors.Wrap(w.p.Close(), "closing producer")
}
