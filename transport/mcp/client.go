package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/game/session"
)

// senderHeader matches api.SenderHeader; the api package is not imported so
// the client can run against a remote server.
const senderHeader = "X-Sender"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rock Paper Scissors",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rock Paper Scissors - MCP Interface

This is a thin client that proxies all requests to the REST API server.

HOW A GAME WORKS:
The host starts a game against an opponent with a committed move. The opponent
answers with their own move, the game is resolved (Rock beats Scissors,
Scissors beats Paper, Paper beats Rock) and removed. A host may have only one
open game per opponent. Blacklisted accounts cannot host.

ACCOUNTS:
Every mutating tool takes a "sender" argument naming the account acting.
Accounts are 3 to 64 lowercase characters from [a-z0-9._-].

AVAILABLE TOOLS:
- start_game: Host a game against an opponent
- respond: Answer a game you were challenged to
- get_game: Show one open game
- games_by_host / games_by_opponent: List open games of an account
- get_owner / get_admin: Show the owner and admin accounts
- update_admin: Hand the admin role on, or give it up with give_up=true (admin only)
- add_to_blacklist / remove_from_blacklist / list_blacklist: Manage who may host (admin only)`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func moveProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{string(engine.Rock), string(engine.Paper), string(engine.Scissors)},
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a game hosted by sender against opponent with the host's move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sender":   stringProp("Hosting account"),
				"opponent": stringProp("Account challenged to the game"),
				"move":     moveProp("Host move"),
			},
			Required: []string{"sender", "opponent", "move"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "respond",
		Description: "Answer the game host started against sender and resolve it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sender": stringProp("Responding account, the opponent of the game"),
				"host":   stringProp("Account that started the game"),
				"move":   moveProp("Opponent move"),
			},
			Required: []string{"sender", "host", "move"},
		},
	}, c.handleRespond)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get the open game between host and opponent",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host":     stringProp("Host account"),
				"opponent": stringProp("Opponent account"),
			},
			Required: []string{"host", "opponent"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "games_by_host",
		Description: "List the open games hosted by an account",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host": stringProp("Host account"),
			},
			Required: []string{"host"},
		},
	}, c.handleGamesByHost)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "games_by_opponent",
		Description: "List the open games waiting for an account to respond",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"opponent": stringProp("Opponent account"),
			},
			Required: []string{"opponent"},
		},
	}, c.handleGamesByOpponent)

	// Access control
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_owner",
		Description: "Get the owner account",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetOwner)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_admin",
		Description: "Get the admin account, if any",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetAdmin)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "update_admin",
		Description: "Hand the admin role to another account, or pass give_up=true instead of admin to give the role up for good",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sender": stringProp("Current admin"),
				"admin":  stringProp("New admin account"),
				"give_up": map[string]interface{}{
					"type":        "boolean",
					"description": "Give the admin role up permanently; no account can administer afterwards",
				},
			},
			Required: []string{"sender"},
		},
	}, c.handleUpdateAdmin)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_to_blacklist",
		Description: "Bar an account from hosting games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sender":  stringProp("Admin account"),
				"address": stringProp("Account to bar"),
			},
			Required: []string{"sender", "address"},
		},
	}, c.handleAddToBlacklist)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_from_blacklist",
		Description: "Allow a blacklisted account to host games again",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sender":  stringProp("Admin account"),
				"address": stringProp("Account to allow"),
			},
			Required: []string{"sender", "address"},
		},
	}, c.handleRemoveFromBlacklist)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_blacklist",
		Description: "List the accounts barred from hosting",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBlacklist)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Handler serves single JSON-RPC messages posted to it.
func (c *Client) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path, sender string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sender != "" {
		req.Header.Set(senderHeader, sender)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// requireStrings returns the named string arguments or an error naming the
// first one missing.
func requireStrings(args map[string]interface{}, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		v, _ := args[name].(string)
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
		values[i] = v
	}
	return values, nil
}

// executeResult is the body of every mutating REST call
type executeResult struct {
	TxID       string              `json:"tx_id"`
	Attributes []service.Attribute `json:"attributes"`
	Outcome    *engine.Outcome     `json:"outcome"`
}

func (r executeResult) attr(key string) string {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func segment(s string) string {
	return url.PathEscape(s)
}

// Tool handlers

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "sender", "opponent", "move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	move, err := engine.ParseMove(v[2])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.StartGame{Opponent: v[1], HostMove: move}
	var res executeResult
	if err := c.apiCall(ctx, "POST", "/api/games", v[0], body, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Game started: %s vs %s\n%s's move is committed; waiting for %s to respond.\nTx: %s\n",
		v[0], v[1], v[0], v[1], res.TxID)), nil
}

func (c *Client) handleRespond(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "sender", "host", "move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	move, err := engine.ParseMove(v[2])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sender, host := v[0], v[1]
	path := fmt.Sprintf("/api/games/%s/%s/respond", segment(host), segment(sender))
	body := map[string]engine.Move{"opp_move": move}
	var res executeResult
	if err := c.apiCall(ctx, "POST", path, sender, body, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Game resolved: %s vs %s\n%s played %s\nResult: %s\nTx: %s\n",
		host, sender, sender, move, res.attr("result"), res.TxID)), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "host", "opponent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var game session.Session
	path := fmt.Sprintf("/api/games/%s/%s", segment(v[0]), segment(v[1]))
	if err := c.apiCall(ctx, "GET", path, "", nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGame(game)), nil
}

func (c *Client) handleGamesByHost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "host")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var list service.GamesListResponse
	if err := c.apiCall(ctx, "GET", "/api/games?host="+url.QueryEscape(v[0]), "", nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGames(fmt.Sprintf("Games hosted by %s", v[0]), list.Games)), nil
}

func (c *Client) handleGamesByOpponent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "opponent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var list service.GamesListResponse
	if err := c.apiCall(ctx, "GET", "/api/games?opponent="+url.QueryEscape(v[0]), "", nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGames(fmt.Sprintf("Games waiting for %s", v[0]), list.Games)), nil
}

func (c *Client) handleGetOwner(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Owner account.ID `json:"owner"`
	}
	if err := c.apiCall(ctx, "GET", "/api/owner", "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Owner: %s\n", resp.Owner)), nil
}

func (c *Client) handleGetAdmin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Admin *account.ID `json:"admin"`
	}
	if err := c.apiCall(ctx, "GET", "/api/admin", "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resp.Admin == nil {
		return mcp.NewToolResultText("Admin: none (the role was given up)\n"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Admin: %s\n", *resp.Admin)), nil
}

func (c *Client) handleUpdateAdmin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	v, err := requireStrings(args, "sender")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	admin, _ := args["admin"].(string)
	giveUp, _ := args["give_up"].(bool)
	var body service.UpdateAdmin
	switch {
	case strings.TrimSpace(admin) != "" && giveUp:
		return mcp.NewToolResultError("pass either admin or give_up, not both"), nil
	case strings.TrimSpace(admin) != "":
		body.Admin = &admin
	case !giveUp:
		return mcp.NewToolResultError("admin is required; set give_up to true to give the role up for good"), nil
	}

	var res executeResult
	if err := c.apiCall(ctx, "PUT", "/api/admin", v[0], body, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if body.Admin == nil {
		return mcp.NewToolResultText(fmt.Sprintf("%s gave up the admin role. No account can administer from now on.\nTx: %s\n", v[0], res.TxID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Admin is now %s\nTx: %s\n", res.attr("admin"), res.TxID)), nil
}

func (c *Client) handleAddToBlacklist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.blacklistCall(ctx, request, "PUT", "added to")
}

func (c *Client) handleRemoveFromBlacklist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.blacklistCall(ctx, request, "DELETE", "removed from")
}

func (c *Client) blacklistCall(ctx context.Context, request mcp.CallToolRequest, method, verb string) (*mcp.CallToolResult, error) {
	v, err := requireStrings(arguments(request), "sender", "address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var res executeResult
	if err := c.apiCall(ctx, method, "/api/blacklist/"+segment(v[1]), v[0], nil, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s the blacklist\nTx: %s\n", res.attr("address"), verb, res.TxID)), nil
}

func (c *Client) handleListBlacklist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp service.BlacklistResponse
	if err := c.apiCall(ctx, "GET", "/api/blacklist", "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Blacklist) == 0 {
		return mcp.NewToolResultText("Blacklist is empty\n"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Blacklist (%d):\n", len(resp.Blacklist))
	for _, id := range resp.Blacklist {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting

func formatGame(g session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s (host) vs %s (opponent)\n", g.Host, g.Opponent)
	fmt.Fprintf(&b, "Host move: %s\n", g.HostMove)
	if !g.Resolved() {
		fmt.Fprintf(&b, "Status: waiting for %s to respond\n", g.Opponent)
		return b.String()
	}
	fmt.Fprintf(&b, "Opponent move: %s\n", *g.OpponentMove)
	fmt.Fprintf(&b, "Result: %s\n", g.Result.Label())
	return b.String()
}

func formatGames(title string, games []session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", title, len(games))
	for _, g := range games {
		fmt.Fprintf(&b, "- %s vs %s\n", g.Host, g.Opponent)
	}
	return b.String()
}
