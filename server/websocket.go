package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      interface{} `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type jsonRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client is a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans out estimate-progress and history-change notifications to
// every connected client, and dispatches incoming JSON-RPC requests.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	server  *Server
}

func newHub(s *Server) *Hub {
	return &Hub{clients: make(map[*Client]bool), server: s}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// BroadcastNotification sends a method/params notification to every
// connected client.
func (h *Hub) BroadcastNotification(method string, params interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	notification := jsonRPCNotification{JSONRPC: "2.0", Method: method, Params: params}
	for client := range h.clients {
		if err := client.send(notification); err != nil {
			h.server.log.WithError(err).Warn("websocket broadcast failed")
		}
	}
}

// BroadcastEstimateProgress sends notify_estimate_progress: how many
// lines of jobID have been dispatched so far. Exercises spec.md §8's
// "chunking independence" property end to end — the final total
// doesn't depend on how many progress notifications fired along the
// way, only on the sequence of records.
func (h *Hub) BroadcastEstimateProgress(jobID string, linesProcessed int) {
	h.BroadcastNotification("notify_estimate_progress", []interface{}{
		map[string]interface{}{"job_id": jobID, "lines_processed": linesProcessed},
	})
}

// BroadcastHistoryChanged sends notify_history_changed.
func (h *Hub) BroadcastHistoryChanged(action string, job interface{}) {
	h.BroadcastNotification("notify_history_changed", []interface{}{
		map[string]interface{}{"action": action, "job": job},
	})
}

// HandleWebSocket upgrades the connection and serves JSON-RPC 2.0
// requests on it until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.server.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{conn: conn}
	h.register(client)
	defer func() {
		h.unregister(client)
		conn.Close()
	}()

	h.server.log.WithField("remote", r.RemoteAddr).Debug("websocket client connected")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.server.log.WithError(err).Debug("websocket read error")
			}
			break
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(message, &req); err != nil {
			client.send(jsonRPCResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "Parse error"}})
			continue
		}
		h.handleRPC(client, &req)
	}
}

func (h *Hub) handleRPC(client *Client, req *jsonRPCRequest) {
	var resp jsonRPCResponse
	resp.JSONRPC = "2.0"
	resp.ID = req.ID

	switch req.Method {
	case "server.info":
		resp.Result = h.server.serverInfo()
	case "server.config":
		resp.Result = h.server.serverConfig()
	case "server.connection.identify":
		resp.Result = map[string]interface{}{"connection_id": 1}

	case "server.files.list":
		root := extractStringParam(req.Params, "root")
		if root == "" {
			root = "gcodes"
		}
		resp.Result = h.server.fileManager.ListFiles(root)
	case "server.files.metadata":
		resp.Result = h.handleFileMetadata(req.Params)
	case "server.files.get_directory":
		resp.Result = h.handleFilesGetDirectory(req.Params)
	case "server.files.roots":
		resp.Result = []map[string]interface{}{{"name": "gcodes", "permissions": "rw"}}

	case "estimate.run":
		result, err := h.handleEstimateRun(req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: -32000, Message: err.Error()}
		} else {
			resp.Result = result
		}

	case "server.history.list":
		resp.Result = h.handleHistoryList(req.Params)
	case "server.history.get_job":
		resp.Result = h.handleHistoryGetJob(req.Params)
	case "server.history.delete_job":
		resp.Result = h.handleHistoryDeleteJob(req.Params)
	case "server.history.totals":
		resp.Result = h.handleHistoryTotals()
	case "server.history.reset_totals":
		resp.Result = h.handleHistoryResetTotals()

	default:
		h.server.log.WithField("method", req.Method).Debug("websocket RPC: unknown method")
		resp.Error = &rpcError{Code: -32601, Message: "Method not found: " + req.Method}
	}

	if err := client.send(resp); err != nil {
		h.server.log.WithError(err).Warn("websocket response send failed")
	}
}

func extractStringParam(params interface{}, key string) string {
	if p, ok := params.(map[string]interface{}); ok {
		if v, ok := p[key].(string); ok {
			return v
		}
	}
	return ""
}

func extractIntParam(params interface{}, key string) int {
	if p, ok := params.(map[string]interface{}); ok {
		switch v := p[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}

func extractFloatParam(params interface{}, key string) float64 {
	if p, ok := params.(map[string]interface{}); ok {
		switch v := p[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}
