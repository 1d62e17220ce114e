package harbor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fluxorio/corenet/pkg/actor"
	"github.com/fluxorio/corenet/pkg/breaker"
	"github.com/fluxorio/corenet/pkg/corelog"
)

// ClusterConfig configures the NATS-backed multi-node harbor, mirroring
// the teacher's ClusterNATSConfig shape (pkg/core/eventbus_cluster_nats.go).
type ClusterConfig struct {
	// URL is the NATS server URL; defaults to nats.DefaultURL.
	URL string
	// Prefix is prepended to every subject. Default: "corenet".
	Prefix string
	// Name is an optional NATS connection name.
	Name string
	Logger corelog.Logger
}

// wireMessage is the JSON envelope exchanged between nodes. Payload
// marshals as base64 via encoding/json's []byte handling, matching the
// teacher's JSONEncode/JSONDecode wrapping of message bodies.
type wireMessage struct {
	Dest    uint32 `json:"dest"`
	Source  uint32 `json:"source"`
	Session int32  `json:"session"`
	Type    uint8  `json:"type"`
	Payload []byte `json:"payload,omitempty"`
}

// Cluster routes non-local Sends over NATS and injects inbound
// messages addressed to this node back into its local Push path.
type Cluster struct {
	nc     *nats.Conn
	prefix string
	node   *actor.Node
	logger corelog.Logger
	sub    *nats.Subscription
	cb     *breaker.CircuitBreaker
}

// NewCluster connects to NATS, subscribes to this node's inbound
// subject, and returns a harbor ready to install with Node.SetHarbor.
func NewCluster(n *actor.Node, cfg ClusterConfig) (*Cluster, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "corenet"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = corelog.Default()
	}

	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if cfg.Name != "" {
			o.Name = cfg.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := &Cluster{nc: nc, prefix: prefix, node: n, logger: logger, cb: breaker.New(5, 10*time.Second)}

	sub, err := nc.Subscribe(c.subject(n.LocalNodeID()), c.onMsg)
	if err != nil {
		nc.Close()
		return nil, err
	}
	c.sub = sub
	return c, nil
}

func (c *Cluster) subject(nodeID uint8) string {
	return fmt.Sprintf("%s.node.%02x", c.prefix, nodeID)
}

// Send publishes msg to the subject owned by dest's node id. Sends are
// guarded by a circuit breaker so a down remote node doesn't pile up
// NATS publish latency behind every outbound message.
func (c *Cluster) Send(dest actor.Handle, msg *actor.Message) error {
	if !c.cb.Allow() {
		return actor.ErrUnknownHandle
	}

	wm := wireMessage{
		Dest:    uint32(dest),
		Source:  uint32(msg.Source),
		Session: msg.Session,
		Type:    uint8(msg.Type),
		Payload: msg.Payload,
	}
	data, err := json.Marshal(wm)
	if err != nil {
		c.cb.Failure()
		return err
	}
	if err := c.nc.Publish(c.subject(dest.NodeID()), data); err != nil {
		c.cb.Failure()
		return err
	}
	c.cb.Success()
	return nil
}

func (c *Cluster) onMsg(nm *nats.Msg) {
	var wm wireMessage
	if err := json.Unmarshal(nm.Data, &wm); err != nil {
		c.logger.Warnf("harbor: malformed cluster message: %v", err)
		return
	}
	msg := &actor.Message{Source: actor.Handle(wm.Source), Session: wm.Session, Type: actor.PType(wm.Type), Payload: wm.Payload}
	if err := c.node.Push(actor.Handle(wm.Dest), msg); err != nil {
		c.logger.Warnf("harbor: dropping cluster message for %s: %v", actor.Handle(wm.Dest), err)
	}
}

// Close drains and closes the NATS connection.
func (c *Cluster) Close() error {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	_ = c.nc.Drain()
	c.nc.Close()
	return nil
}
