package restapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/app/provider"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WalletService is the part of the wallet provider the API drives.
type WalletService interface {
	State() provider.State
	SubscribeState(ch chan<- provider.State) event.Subscription
	Select(name entity.WalletName)
	BeforeUnload()
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	SendTransaction(ctx context.Context, tx entity.Transaction, conn port.Connection, opts entity.SendTransactionOptions) (string, error)
	SignTransaction(ctx context.Context, tx entity.Transaction) (entity.Transaction, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// ConnectTimer times connect requests; metrics.Collector implements it.
type ConnectTimer interface {
	TimeConnect(wallet entity.WalletName) func(err error)
}

// WalletHandlerOptions holds the optional collaborators of a WalletHandler.
type WalletHandlerOptions struct {
	Connections port.ConnectionProvider
	Network     entity.NetworkDefinition
	// PendingRedirect returns the last URL the page was sent to.
	PendingRedirect func() (string, bool)
	ConnectTimer    ConnectTimer
	Logger          port.Logger
}

// WalletHandler serves the wallet provider over HTTP.
type WalletHandler struct {
	wallets WalletService
	opts    WalletHandlerOptions
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets WalletService, opts WalletHandlerOptions) *WalletHandler {
	return &WalletHandler{wallets: wallets, opts: opts}
}

type walletResponse struct {
	Name                         entity.WalletName           `json:"name"`
	URL                          string                      `json:"url"`
	Icon                         string                      `json:"icon"`
	ReadyState                   entity.WalletReadyState     `json:"readyState"`
	SupportedTransactionVersions []entity.TransactionVersion `json:"supportedTransactionVersions"`
}

type stateResponse struct {
	AutoConnect     bool              `json:"autoConnect"`
	Wallets         []walletResponse  `json:"wallets"`
	Wallet          *walletResponse   `json:"wallet"`
	PublicKey       *entity.PublicKey `json:"publicKey"`
	Connecting      bool              `json:"connecting"`
	Connected       bool              `json:"connected"`
	Disconnecting   bool              `json:"disconnecting"`
	Cluster         entity.Cluster    `json:"cluster,omitempty"`
	PendingRedirect string            `json:"pendingRedirect,omitempty"`
}

type errorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type selectRequest struct {
	Name entity.WalletName `json:"name"`
}

type signMessageRequest struct {
	Message hexutil.Bytes `json:"message"`
}

type signMessageResponse struct {
	Signature hexutil.Bytes `json:"signature"`
}

type transactionRequest struct {
	Transaction entity.TransactionEnvelope `json:"transaction"`
	Options     entity.SendOptions         `json:"options"`
}

type transactionResponse struct {
	Transaction entity.TransactionEnvelope `json:"transaction"`
}

type sendTransactionResponse struct {
	Signature string `json:"signature"`
}

func toWalletResponse(w provider.Wallet) walletResponse {
	return walletResponse{
		Name:                         w.Adapter.Name(),
		URL:                          w.Adapter.URL(),
		Icon:                         w.Adapter.Icon(),
		ReadyState:                   w.ReadyState,
		SupportedTransactionVersions: w.Adapter.SupportedTransactionVersions(),
	}
}

func (h *WalletHandler) buildState(s provider.State) stateResponse {
	resp := stateResponse{
		AutoConnect:   s.AutoConnect,
		Wallets:       make([]walletResponse, 0, len(s.Wallets)),
		PublicKey:     s.PublicKey,
		Connecting:    s.Connecting,
		Connected:     s.Connected,
		Disconnecting: s.Disconnecting,
		Cluster:       h.opts.Network.Cluster,
	}
	for _, w := range s.Wallets {
		resp.Wallets = append(resp.Wallets, toWalletResponse(w))
	}
	if s.Wallet != nil {
		w := toWalletResponse(*s.Wallet)
		resp.Wallet = &w
	}
	if h.opts.PendingRedirect != nil {
		if target, ok := h.opts.PendingRedirect(); ok {
			resp.PendingRedirect = target
		}
	}
	return resp
}

// ListWalletsHandler returns the configured adapters with their ready states.
func (h *WalletHandler) ListWalletsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildState(h.wallets.State()).Wallets)
}

// GetStateHandler returns the provider state.
func (h *WalletHandler) GetStateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildState(h.wallets.State()))
}

// SelectHandler selects a wallet by name.
func (h *WalletHandler) SelectHandler(c *gin.Context) {
	var req selectRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Name == "" {
		h.badRequest(c, errors.New("name is required"))
		return
	}
	h.wallets.Select(req.Name)
	c.JSON(http.StatusOK, h.buildState(h.wallets.State()))
}

// ConnectHandler connects the selected wallet.
func (h *WalletHandler) ConnectHandler(c *gin.Context) {
	var done func(error)
	if h.opts.ConnectTimer != nil {
		if s := h.wallets.State(); s.Wallet != nil {
			done = h.opts.ConnectTimer.TimeConnect(s.Wallet.Adapter.Name())
		}
	}
	err := h.wallets.Connect(c.Request.Context())
	if done != nil {
		done(err)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.buildState(h.wallets.State()))
}

// DisconnectHandler disconnects the selected wallet.
func (h *WalletHandler) DisconnectHandler(c *gin.Context) {
	if err := h.wallets.Disconnect(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.buildState(h.wallets.State()))
}

// SignMessageHandler signs a hex encoded message.
func (h *WalletHandler) SignMessageHandler(c *gin.Context) {
	var req signMessageRequest
	if !h.bind(c, &req) {
		return
	}
	if len(req.Message) == 0 {
		h.badRequest(c, errors.New("message is required"))
		return
	}
	signature, err := h.wallets.SignMessage(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, signMessageResponse{Signature: signature})
}

// SignTransactionHandler signs a transaction without submitting it.
func (h *WalletHandler) SignTransactionHandler(c *gin.Context) {
	var req transactionRequest
	if !h.bind(c, &req) {
		return
	}
	tx, err := req.Transaction.Transaction()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	signed, err := h.wallets.SignTransaction(c.Request.Context(), tx)
	if err != nil {
		h.fail(c, err)
		return
	}
	env, err := entity.Envelope(signed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponse{Transaction: env})
}

// SendTransactionHandler prepares, signs and submits a transaction through the wallet.
func (h *WalletHandler) SendTransactionHandler(c *gin.Context) {
	var req transactionRequest
	if !h.bind(c, &req) {
		return
	}
	tx, err := req.Transaction.Transaction()
	if err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var conn port.Connection
	if h.opts.Connections != nil {
		conn, err = h.opts.Connections.GetConnection(ctx)
		if err != nil {
			h.log().Error("Failed to get chain connection", "error", err)
			h.respondError(c, http.StatusBadGateway, "ConnectionUnavailable", err.Error())
			return
		}
	}

	signature, err := h.wallets.SendTransaction(ctx, tx, conn, entity.SendTransactionOptions{SendOptions: req.Options})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sendTransactionResponse{Signature: signature})
}

// UnloadHandler tells the provider the page is going away.
func (h *WalletHandler) UnloadHandler(c *gin.Context) {
	h.wallets.BeforeUnload()
	c.Status(http.StatusNoContent)
}

// StateEventsHandler streams state snapshots as server-sent events, starting with the current one.
func (h *WalletHandler) StateEventsHandler(c *gin.Context) {
	ch := make(chan provider.State, 1)
	sub := h.wallets.SubscribeState(ch)
	defer sub.Unsubscribe()

	c.SSEvent("state", h.buildState(h.wallets.State()))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case s := <-ch:
			c.SSEvent("state", h.buildState(s))
			return true
		case <-sub.Err():
			return false
		case <-ctx.Done():
			return false
		}
	})
}

func (h *WalletHandler) bind(c *gin.Context, v any) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		h.badRequest(c, err)
		return false
	}
	return true
}

func (h *WalletHandler) badRequest(c *gin.Context, err error) {
	h.respondError(c, http.StatusBadRequest, "BadRequest", err.Error())
}

func (h *WalletHandler) fail(c *gin.Context, err error) {
	var we *entity.WalletError
	if !errors.As(err, &we) {
		h.log().Error("Wallet request failed", "path", c.FullPath(), "error", err)
		h.respondError(c, http.StatusInternalServerError, string(entity.KindWallet), err.Error())
		return
	}
	h.log().Warn("Wallet request failed", "path", c.FullPath(), "kind", we.Kind, "error", err)
	h.respondError(c, statusForKind(we.Kind), string(we.Kind), we.Error())
}

func (h *WalletHandler) respondError(c *gin.Context, status int, kind, message string) {
	var resp errorResponse
	resp.Error.Kind = kind
	resp.Error.Message = message
	c.AbortWithStatusJSON(status, resp)
}

func (h *WalletHandler) log() port.Logger {
	if h.opts.Logger == nil {
		return logger.NewNop()
	}
	return h.opts.Logger
}

// statusForKind maps the wallet error taxonomy onto HTTP status codes.
func statusForKind(kind entity.WalletErrorKind) int {
	switch kind {
	case entity.KindNotSelected, entity.KindNotConnected:
		return http.StatusConflict
	case entity.KindNotReady:
		return http.StatusPreconditionFailed
	case entity.KindConnection, entity.KindAccount, entity.KindPublicKey,
		entity.KindDisconnection, entity.KindDisconnected,
		entity.KindSendTransaction, entity.KindSignTransaction, entity.KindSignMessage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
