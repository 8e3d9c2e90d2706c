package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/game/engine"
	"DrawPoker/internal/game/manager"
	"DrawPoker/internal/game/table"
	"DrawPoker/internal/ledger"
	"DrawPoker/internal/utils"
)

var ErrPlayerBusy = errors.New("lobby: player is already in another session")

const historyLimit = 50

// Service 大厅：在 GameManager 之上加一人一局的限制、事件推送和对局归档
type Service struct {
	mgr       *manager.GameManager
	repo      Repo
	notifier  engine.Notifier
	ledger    ledger.Ledger
	playerTTL time.Duration
	logger    *log.Logger
}

// NewService takes over mgr.OnFinished to archive finished sessions.
func NewService(mgr *manager.GameManager, repo Repo, notifier engine.Notifier, l ledger.Ledger, playerTTL time.Duration) *Service {
	s := &Service{
		mgr:       mgr,
		repo:      repo,
		notifier:  notifier,
		ledger:    l,
		playerTTL: playerTTL,
		logger:    utils.Logger("lobby"),
	}
	mgr.OnFinished = s.finished
	return s
}

func (s *Service) Create(ctx context.Context, key, ownerID string) (string, error) {
	return s.mgr.CreateSession(key, ownerID)
}

// Join 防止重复入局：先原子占位再入座，入座失败时释放本次新占的位
func (s *Service) Join(ctx context.Context, sessionID string, p table.Player) error {
	fresh, err := s.claim(ctx, p.ID, sessionID)
	if err != nil {
		return err
	}

	if err := s.mgr.JoinSession(sessionID, p); err != nil {
		if fresh {
			if cerr := s.repo.ClearPlayerSession(ctx, p.ID, sessionID); cerr != nil {
				s.logger.Warn("ClearPlayerSession failed", "player", p.ID, "err", cerr)
			}
		}
		return err
	}

	if snap, err := s.mgr.Get(sessionID); err == nil {
		s.notifier.Broadcast(snapshotIDs(snap), engine.Event{Name: "player_joined", Data: map[string]any{
			"session": sessionID,
			"player":  p.ID,
			"handle":  p.Handle,
			"players": len(snap.Players),
		}})
	}
	return nil
}

// claim 占位；旧占位指向已结束的局时先清掉再重试一次
func (s *Service) claim(ctx context.Context, playerID, sessionID string) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		holder, fresh, err := s.repo.ClaimPlayerSession(ctx, playerID, sessionID, s.playerTTL)
		if err != nil {
			return false, err
		}
		if holder == sessionID {
			return fresh, nil
		}
		if _, live := s.mgr.Session(holder); live {
			return false, fmt.Errorf("%w: %s", ErrPlayerBusy, holder)
		}
		if err := s.repo.ClearPlayerSession(ctx, playerID, holder); err != nil {
			return false, err
		}
	}
	return false, ErrPlayerBusy
}

func (s *Service) Start(ctx context.Context, sessionID, requesterID string) error {
	snap, err := s.mgr.Get(sessionID)
	if err != nil {
		return err
	}
	if err := s.mgr.StartSession(sessionID, requesterID); err != nil {
		return err
	}
	s.notifier.Broadcast(snapshotIDs(snap), engine.Event{Name: "session_started", Data: map[string]any{
		"session": sessionID,
		"players": snap.Players,
	}})
	return nil
}

func (s *Service) Abandon(ctx context.Context, sessionID, requesterID string) error {
	return s.mgr.AbandonSession(sessionID, requesterID)
}

func (s *Service) Get(sessionID string) (table.Snapshot, error) {
	return s.mgr.Get(sessionID)
}

func (s *Service) History(ctx context.Context, key string, n int) ([]Record, error) {
	return s.repo.Recent(ctx, key, n)
}

// Seat 玩家当前占位的局，已结束的局视为空
func (s *Service) Seat(ctx context.Context, playerID string) (string, error) {
	id, err := s.repo.PlayerSession(ctx, playerID)
	if err != nil || id == "" {
		return "", err
	}
	if _, live := s.mgr.Session(id); !live {
		return "", nil
	}
	return id, nil
}

func (s *Service) Balance(ctx context.Context, playerID string) (int64, error) {
	return s.ledger.Balance(ctx, playerID)
}

// finished 释放玩家占位并归档
func (s *Service) finished(sess *manager.Session, res *engine.Result, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := sess.State.Snapshot()
	ids := snapshotIDs(snap)
	for _, id := range ids {
		if err := s.repo.ClearPlayerSession(ctx, id, sess.ID); err != nil {
			s.logger.Warn("ClearPlayerSession failed", "player", id, "err", err)
		}
	}

	rec := Record{
		SessionID:  sess.ID,
		Key:        sess.Key,
		Players:    ids,
		Pot:        snap.Pot,
		FinishedAt: time.Now(),
	}
	if res != nil {
		rec.Winners = res.Winners
		rec.Share = res.Share
		rec.Remainder = res.Remainder
		rec.Uncontested = res.Uncontested
	}
	if runErr != nil {
		rec.Aborted = true
		rec.Reason = runErr.Error()
	}
	if err := s.repo.SaveRecord(ctx, rec, historyLimit); err != nil {
		s.logger.Error("SaveRecord failed", "session", sess.ID, "err", err)
	}
	s.logger.Info("session finished", "session", sess.ID, "winners", rec.Winners, "aborted", rec.Aborted)
}

func snapshotIDs(snap table.Snapshot) []string {
	ids := make([]string, 0, len(snap.Players))
	for _, p := range snap.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
