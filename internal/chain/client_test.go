package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	testTxHash = "0xabababababababababababababababababababababababababababababababab"

	receiptResult = `{"transactionHash":"0xabababababababababababababababababababababababababababababababab","cumulativeGasUsed":"0xc350","gasUsed":"0xc350","logsBloom":"0x00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000","status":"0x1","logs":[{"address":"0x3333333333333333333333333333333333333333","topics":["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef","0x0000000000000000000000001111111111111111111111111111111111111111","0x0000000000000000000000004444444444444444444444444444444444444444"],"data":"0x00000000000000000000000000000000000000000000000000000000000003e8","blockNumber":"0x10","transactionHash":"0xabababababababababababababababababababababababababababababababab","transactionIndex":"0x0","blockHash":"0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd","logIndex":"0x2","removed":false}]}`

	traceResult = `{"type":"CALL","from":"0x1111111111111111111111111111111111111111","to":"0x3333333333333333333333333333333333333333","gas":"0x5208","gasUsed":"0x5208","input":"0xa9059cbb","calls":[{"type":"DELEGATECALL","from":"0x3333333333333333333333333333333333333333","to":"0x6666666666666666666666666666666666666666","gas":"0x100","gasUsed":"0x80","input":"0x"}]}`
)

// newRPCServer answers JSON-RPC calls by method name. Methods missing from
// results are answered with a JSON-RPC error.
func newRPCServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"the method %s does not exist"}}`, req.ID, req.Method)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialTest(t *testing.T, results map[string]string) *Client {
	t.Helper()
	srv := newRPCServer(t, results)
	client, err := NewClient(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestTransactionLogs(t *testing.T) {
	client := dialTest(t, map[string]string{"eth_getTransactionReceipt": receiptResult})

	logs, err := client.TransactionLogs(context.Background(), common.HexToHash(testTxHash))
	if err != nil {
		t.Fatalf("transaction logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].Index != 2 || logs[0].BlockNumber != 16 || len(logs[0].Topics) != 3 {
		t.Fatalf("log mismatch: %+v", logs[0])
	}
}

func TestTransactionLogsNotFound(t *testing.T) {
	client := dialTest(t, map[string]string{"eth_getTransactionReceipt": "null"})

	if _, err := client.TransactionLogs(context.Background(), common.HexToHash(testTxHash)); !errors.Is(err, ethereum.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTraceTransaction(t *testing.T) {
	client := dialTest(t, map[string]string{"debug_traceTransaction": traceResult})

	frame, err := client.TraceTransaction(context.Background(), common.HexToHash(testTxHash))
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if frame.Type != "CALL" || len(frame.Calls) != 1 || frame.Calls[0].Type != "DELEGATECALL" {
		t.Fatalf("trace mismatch: %+v", frame)
	}
	if uint64(frame.GasUsed) != 21000 || len(frame.Input) != 4 {
		t.Fatalf("trace fields mismatch: %+v", frame)
	}
}

func TestTraceTransactionUnsupported(t *testing.T) {
	client := dialTest(t, map[string]string{})

	if _, err := client.TraceTransaction(context.Background(), common.HexToHash(testTxHash)); err == nil {
		t.Fatalf("expected error when the node has no debug namespace")
	}
}
