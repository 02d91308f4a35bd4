// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remote

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
)

// ZmqClient - request/reply connection to one node endpoint
//
// a REQ socket is strictly lock step so all calls are serialised; a
// timed out socket is torn down and reopened because a stray late reply
// would otherwise desynchronise the request cycle
type ZmqClient struct {
	sync.Mutex
	log      *logger.L
	endpoint string
	timeout  time.Duration
	socket   *zmq.Socket
}

// NewZmqClient - connect to a node endpoint, e.g. "tcp://127.0.0.1:2130"
func NewZmqClient(endpoint string, timeout time.Duration) (*ZmqClient, error) {
	if "" == endpoint {
		return nil, fault.InvalidEndpoint
	}

	client := &ZmqClient{
		log:      logger.New("remote"),
		endpoint: endpoint,
		timeout:  timeout,
	}

	err := client.openSocket()
	if nil != err {
		return nil, err
	}
	return client, nil
}

func (client *ZmqClient) openSocket() error {

	socket, err := zmq.NewSocket(zmq.REQ)
	if nil != err {
		return err
	}

	err = socket.SetLinger(0)
	if nil != err {
		goto failure
	}
	err = socket.SetSndtimeo(client.timeout)
	if nil != err {
		goto failure
	}
	err = socket.SetRcvtimeo(client.timeout)
	if nil != err {
		goto failure
	}

	err = socket.Connect(client.endpoint)
	if nil != err {
		goto failure
	}

	client.socket = socket
	return nil

failure:
	socket.Close()
	return err
}

func (client *ZmqClient) closeSocket() {
	if nil != client.socket {
		client.socket.Close()
		client.socket = nil
	}
}

// one request cycle; the socket is reset on any error
func (client *ZmqClient) exchange(request [][]byte) ([][]byte, error) {
	client.Lock()
	defer client.Unlock()

	if nil == client.socket {
		err := client.openSocket()
		if nil != err {
			return nil, err
		}
	}

	_, err := client.socket.SendMessage(request)
	if nil != err {
		client.closeSocket()
		return nil, err
	}

	reply, err := client.socket.RecvMessageBytes(0)
	if nil != err {
		client.closeSocket()
		return nil, err
	}
	if 0 == len(reply) {
		client.closeSocket()
		return nil, fault.InvalidRecordLength
	}

	if replyError == string(reply[0]) {
		message := ""
		if len(reply) > 1 {
			message = string(reply[1])
		}
		return nil, fmt.Errorf("remote error: %q", message)
	}
	return reply, nil
}

// FetchDelta - request one batch of updates after a checkpoint
func (client *ZmqClient) FetchDelta(since uint64, batchSize int, tags []uint64) (*DeltaReply, error) {
	if batchSize <= 0 || batchSize > 0xffff {
		return nil, fault.InvalidBatchSize
	}

	client.log.Debugf("fetch delta since: %d  batch: %d  tags: %d", since, batchSize, len(tags))

	reply, err := client.exchange([][]byte{
		[]byte(commandDelta),
		PackDeltaRequest(since, batchSize, tags),
	})
	if nil != err {
		return nil, err
	}

	if commandDelta != string(reply[0]) {
		return nil, fault.InvalidRecordLength
	}
	return UnpackDeltaReply(reply[1:])
}

// Submit - hand a proven transaction to the node
//
// every failure maps to fault.SubmissionFailed: once the request is on
// the wire there is no way to know whether the node acted on it
func (client *ZmqClient) Submit(txId merkle.Digest, payload []byte) error {

	client.log.Infof("submit: %s", txId)

	reply, err := client.exchange([][]byte{
		[]byte(commandSubmit),
		txId[:],
		payload,
	})
	if nil != err {
		client.log.Warnf("submit: %s  error: %s", txId, err)
		return fault.SubmissionFailed
	}
	if replyOK != string(reply[0]) {
		client.log.Warnf("submit: %s  unexpected reply: %q", txId, reply[0])
		return fault.SubmissionFailed
	}
	return nil
}

// Close - release the connection
func (client *ZmqClient) Close() error {
	client.Lock()
	defer client.Unlock()
	client.closeSocket()
	return nil
}
