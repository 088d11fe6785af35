package transmission

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Artiqlate/callisto/comm"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/utils"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	mediaPlayerSubsystem = "mp"
	// Album art travels inline, so packets are far larger than the
	// websocket default.
	maxPacketSize = 16 << 20
)

var (
	ErrAlreadyConnected = errors.New("connection already established")

	errEncode = errors.New("encode packet")
)

type NetworkTransmissionServer struct {
	logger          *zap.Logger
	port            int
	moduleInitChan  chan<- []string
	moduleCloseChan chan<- bool
	writeChannel    <-chan *models.Packet
	commChannels    *comm.CommChannels

	httpServer *http.Server
	serveMux   *http.ServeMux
	listener   net.Listener

	mu     sync.Mutex
	wsConn *websocket.Conn
}

func NewNetworkTransmissionServer(
	port int,
	writeChannel <-chan *models.Packet,
	moduleInitChan chan<- []string,
	moduleCloseChan chan<- bool,
	commChannels *comm.CommChannels,
	logger *zap.Logger,
) *NetworkTransmissionServer {
	newNT := &NetworkTransmissionServer{
		logger:          logger,
		port:            port,
		moduleInitChan:  moduleInitChan,
		moduleCloseChan: moduleCloseChan,
		writeChannel:    writeChannel,
		commChannels:    commChannels,
		serveMux:        http.NewServeMux(),
	}
	newNT.serveMux.HandleFunc("/", newNT.WebsocketHandler)
	return newNT
}

// Handler serves the websocket endpoint.
func (nt *NetworkTransmissionServer) Handler() http.Handler {
	return nt.serveMux
}

// -- COROUTINE FOR SERVER
func (nt *NetworkTransmissionServer) Coroutine(errChan chan<- error) {
	nt.logger.Info("starting server", zap.Int("port", nt.port))
	if serveErr := nt.Serve(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		errChan <- serveErr
	}
}

// -- DATA DECODE AND PARSING
func (nt *NetworkTransmissionServer) decodeData(data []byte) error {
	packet, decodeErr := models.DecodePacket(data)
	if decodeErr != nil {
		return fmt.Errorf("decode packet: %w", decodeErr)
	}

	// Consider these two types: "ping" and "mp:update". The first one is
	// handled here, the second one belongs to the "mp" subsystem.
	subsystem, _ := utils.SplitMethod(packet.Type)
	switch subsystem {
	// Add all subsystem-based methods here
	case mediaPlayerSubsystem:
		select {
		case nt.commChannels.MPChannel.InChannel <- packet:
		default:
			nt.logger.Warn("media player channel full, dropping packet", zap.String("type", packet.Type))
		}
	case models.PingType:
		ping, pingErr := models.DecodePing(packet)
		if pingErr != nil {
			return pingErr
		}
		nt.logger.Debug("ping received", zap.String("message", ping.Message), zap.Strings("capabilities", ping.Capabilities))
		// Send it to main server module for processing
		nt.moduleInitChan <- ping.Capabilities
	default:
		nt.logger.Debug("unknown packet type", zap.String("type", packet.Type))
	}
	return nil
}

func (nt *NetworkTransmissionServer) write(ctx context.Context, conn *websocket.Conn, packet *models.Packet) error {
	encodedData, marshalErr := packet.Encode()
	if marshalErr != nil {
		return fmt.Errorf("%w: %w", errEncode, marshalErr)
	}
	return conn.Write(ctx, websocket.MessageBinary, encodedData)
}

// -- HTTP SPECIFIC --

// Listen binds the server port. Port 0 picks a free one.
func (nt *NetworkTransmissionServer) Listen() error {
	listener, listenErr := net.Listen("tcp", fmt.Sprintf(":%d", nt.port))
	if listenErr != nil {
		return fmt.Errorf("listen on port %d: %w", nt.port, listenErr)
	}
	nt.listener = listener
	return nil
}

// Addr is the bound address, nil before Listen.
func (nt *NetworkTransmissionServer) Addr() net.Addr {
	if nt.listener == nil {
		return nil
	}
	return nt.listener.Addr()
}

// -- Start Server
func (nt *NetworkTransmissionServer) Serve() error {
	if nt.listener == nil {
		if listenErr := nt.Listen(); listenErr != nil {
			return listenErr
		}
	}
	nt.mu.Lock()
	nt.httpServer = &http.Server{
		Handler:           nt.serveMux,
		ReadHeaderTimeout: time.Second * 10,
	}
	nt.mu.Unlock()
	return nt.httpServer.Serve(nt.listener)
}

// -- Shutdown Server
func (nt *NetworkTransmissionServer) Shutdown(ctx context.Context) error {
	nt.mu.Lock()
	conn, httpServer := nt.wsConn, nt.httpServer
	nt.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusGoingAway, "SERVER SHUTDOWN")
	}
	if httpServer == nil {
		if nt.listener != nil {
			return nt.listener.Close()
		}
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// -- WEBSOCKET-SPECIFIC --

// - UPGRADE TO WS
func (nt *NetworkTransmissionServer) upgradeToWebsockets(w http.ResponseWriter, req *http.Request) (*websocket.Conn, error) {
	nt.mu.Lock()
	defer nt.mu.Unlock()
	if nt.wsConn != nil {
		http.Error(w, "Server already connected, cannot accept more connections.", http.StatusLocked)
		return nil, ErrAlreadyConnected
	}
	if discarded := nt.discardStale(); discarded > 0 {
		nt.logger.Debug("discarded stale packets", zap.Int("count", discarded))
	}
	wsConn, wsConnAcceptErr := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if wsConnAcceptErr != nil {
		return nil, fmt.Errorf("accept websocket: %w", wsConnAcceptErr)
	}
	wsConn.SetReadLimit(maxPacketSize)
	nt.wsConn = wsConn
	return wsConn, nil
}

// - WEBSOCKET CLOSE
func (nt *NetworkTransmissionServer) wsClose(conn *websocket.Conn, statusCode websocket.StatusCode, reason string) {
	nt.mu.Lock()
	if nt.wsConn == conn {
		nt.wsConn = nil
	}
	nt.mu.Unlock()
	nt.logger.Info("connection closing", zap.String("reason", reason))
	_ = conn.Close(statusCode, reason)

	// Connection loss closes the modules
	select {
	case nt.moduleCloseChan <- true:
	default:
	}
}

func (nt *NetworkTransmissionServer) WebsocketHandler(w http.ResponseWriter, req *http.Request) {
	// Upgrade to websockets if possible
	wsConn, wsUpgradeErr := nt.upgradeToWebsockets(w, req)
	if wsUpgradeErr != nil {
		nt.logger.Warn("websocket upgrade failed", zap.Error(wsUpgradeErr))
		return
	}
	nt.logger.Info("companion connected", zap.String("remote", req.RemoteAddr))

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	// Run the write loop. A failed write cancels ctx, which ends the read
	// loop and closes the connection.
	go nt.writeLoop(ctx, cancel, func(ctx context.Context, packet *models.Packet) error {
		return nt.write(ctx, wsConn, packet)
	})

	readErr := nt.readLoop(ctx, wsConn)
	if readErr != nil {
		nt.logger.Warn("read failed", zap.Error(readErr))
		nt.wsClose(wsConn, websocket.StatusInternalError, "SERVER ERROR")
		return
	}
	nt.wsClose(wsConn, websocket.StatusNormalClosure, "THANK YOU")
}

// -- READ AND WRITE LOOPS

func (nt *NetworkTransmissionServer) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, readErr := conn.Read(ctx)
		if readErr != nil {
			status := websocket.CloseStatus(readErr)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return readErr
		}
		// A malformed packet is dropped, the connection stays up
		if decodeErr := nt.decodeData(data); decodeErr != nil {
			nt.logger.Warn("dropping packet", zap.Error(decodeErr))
		}
	}
}

func (nt *NetworkTransmissionServer) writeLoop(ctx context.Context, cancel context.CancelFunc, send func(context.Context, *models.Packet) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case packet := <-nt.writeChannel:
			if packet == nil {
				continue
			}
			if writeErr := send(ctx, packet); writeErr != nil {
				if errors.Is(writeErr, errEncode) {
					nt.logger.Warn("dropping unencodable packet", zap.String("type", packet.Type), zap.Error(writeErr))
					continue
				}
				nt.logger.Warn("write failed", zap.String("type", packet.Type), zap.Error(writeErr))
				cancel()
				return
			}
		}
	}
}

// discardStale empties the write channel. Packets queued without a
// connection belong to a companion that is gone.
func (nt *NetworkTransmissionServer) discardStale() int {
	discarded := 0
	for {
		select {
		case <-nt.writeChannel:
			discarded++
		default:
			return discarded
		}
	}
}
