package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/service"
	"github.com/aiwolfdial/turandot/store"
	"github.com/aiwolfdial/turandot/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server lets spectators follow games: stored games and events over HTTP and
// the live packet feed over a websocket.
type Server struct {
	config              model.Config
	upgrader            websocket.Upgrader
	store               *store.Store
	realtimeBroadcaster *service.RealtimeBroadcaster
}

func NewServer(config model.Config, st *store.Store, realtimeBroadcaster *service.RealtimeBroadcaster) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		store:               st,
		realtimeBroadcaster: realtimeBroadcaster,
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Header("Server", Version.UserAgent())
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, Version)
	})

	protected := router.Group("/")
	if s.config.Server.Authentication.Enable {
		protected.Use(s.verifyMiddleware())
	}
	if s.store != nil {
		protected.GET("/games", s.handleListGames)
		protected.GET("/games/:id", s.handleGetGame)
		protected.GET("/games/:id/events", s.handleEvents)
	}
	if s.realtimeBroadcaster != nil {
		protected.GET("/ws", s.handleConnections)
		protected.Static("/realtime", s.realtimeBroadcaster.OutputDir())
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + strconv.Itoa(s.config.Server.Port)
	server := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバを起動しました", "host", s.config.Server.Host, "port", s.config.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("サーバの起動に失敗しました", "error", err)
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("サーバの停止に失敗しました", "error", err)
		return err
	}
	slog.Info("サーバを停止しました")
	return nil
}

func (s *Server) handleListGames(c *gin.Context) {
	games, err := s.store.ListGames(c.Request.Context())
	if err != nil {
		slog.Error("ゲーム一覧の取得に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, games)
}

func (s *Server) handleGetGame(c *gin.Context) {
	game, err := s.store.GetGame(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, game)
}

// handleEvents returns public events only unless private=true is given.
func (s *Server) handleEvents(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.store.GetGame(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	includePrivate := c.Query("private") == "true"
	events, err := s.store.EventsByGame(c.Request.Context(), id, includePrivate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) handleConnections(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("クライアントのアップグレードに失敗しました", "error", err)
		return
	}
	defer ws.Close()
	slog.Info("観戦クライアントが接続しました", "remote_addr", ws.RemoteAddr().String())

	feed, cancel := s.realtimeBroadcaster.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-feed:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("観戦クライアントへの送信に失敗しました", "error", err)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			slog.Info("観戦クライアントが切断しました", "remote_addr", ws.RemoteAddr().String())
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (s *Server) verifyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !util.IsValidReceiver(s.config.Server.Authentication.Secret, token) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
