// Package auth 提供本地身份与轻量会话。
// 身份只是一个持久化的不透明字符串，不做任何真实鉴权；
// 会话记录（邮箱/访客/匿名）同样只存在本地。
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"promptlib/internal/logger"
	"promptlib/internal/store"

	"go.uber.org/zap"
)

var (
	// ErrInvalidEmail 表示邮箱格式非法
	ErrInvalidEmail = errors.New("auth: invalid email")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session 会话记录，显式登出前一直有效
type Session struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	IsGuest         bool      `json:"isGuest"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	LoginTime       time.Time `json:"loginTime"`
}

// Permissions 能力表（并非角色层级）
type Permissions struct {
	CanVote              bool `json:"canVote"`
	CanViewVotes         bool `json:"canViewVotes"`
	CanSubmitPrompts     bool `json:"canSubmitPrompts"`
	CanViewPersonalStats bool `json:"canViewPersonalStats"`
	CanExportData        bool `json:"canExportData"`
}

// Rekeyer 在登录成功后把投票账本迁移到新身份
type Rekeyer interface {
	Rekey(ctx context.Context, newIdentity string) bool
}

// Service 身份服务
type Service struct {
	store    store.Store
	identity string
	current  *Session
	rekeyer  Rekeyer
}

// NewService 创建身份服务并恢复已持久化的会话
func NewService(ctx context.Context, s store.Store) *Service {
	svc := &Service{store: s}

	var session Session
	if s.Get(ctx, store.KeySession, &session) && session.ID != "" {
		svc.current = &session
	}
	return svc
}

// SetRekeyer 注册投票迁移钩子（由投票服务在装配时调用）
func (s *Service) SetRekeyer(r Rekeyer) {
	s.rekeyer = r
}

// EnsureIdentity 读取或生成稳定的匿名身份 ID，同一存储生命周期内幂等
func (s *Service) EnsureIdentity(ctx context.Context) string {
	if s.identity != "" {
		return s.identity
	}

	var id string
	if s.store.Get(ctx, store.KeyIdentity, &id) && id != "" {
		s.identity = id
		return id
	}

	id = newID("user_") + strconv.FormatInt(time.Now().UnixMilli(), 36)
	s.store.Set(ctx, store.KeyIdentity, id)
	s.identity = id
	return id
}

// ActiveIdentity 当前生效身份：有会话用会话 ID，否则用匿名 ID
func (s *Service) ActiveIdentity(ctx context.Context) string {
	if s.current != nil {
		return s.current.ID
	}
	return s.EnsureIdentity(ctx)
}

// Login 邮箱登录。成功后触发投票账本迁移到新会话身份。
func (s *Service) Login(ctx context.Context, email, name string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	session := &Session{
		ID:              newID("user_"),
		Name:            name,
		Email:           email,
		IsAuthenticated: true,
		LoginTime:       time.Now().UTC(),
	}

	if !s.store.Set(ctx, store.KeySession, session) {
		return nil, fmt.Errorf("保存会话失败")
	}
	s.current = session

	// 匿名投票迁移到新身份（尽力而为）
	if s.rekeyer != nil {
		if !s.rekeyer.Rekey(ctx, session.ID) {
			logger.Warn("投票迁移失败", zap.String("identity", session.ID))
		}
	}

	logger.Info("邮箱登录成功", zap.String("identity", session.ID))
	return session, nil
}

// LoginAsGuest 访客登录，无需邮箱，不触发投票迁移
func (s *Service) LoginAsGuest(ctx context.Context, name string) (*Session, error) {
	if name == "" {
		name = "Guest User"
	}

	session := &Session{
		ID:        newID("guest_"),
		Name:      name,
		IsGuest:   true,
		LoginTime: time.Now().UTC(),
	}

	if !s.store.Set(ctx, store.KeySession, session) {
		return nil, fmt.Errorf("保存访客会话失败")
	}
	s.current = session
	return session, nil
}

// Logout 删除会话，匿名身份保持不变
func (s *Service) Logout(ctx context.Context) {
	s.current = nil
	s.store.Remove(ctx, store.KeySession)
}

// IsLoggedIn 是否存在会话
func (s *Service) IsLoggedIn() bool {
	return s.current != nil
}

// CurrentSession 当前会话，匿名时为 nil
func (s *Service) CurrentSession() *Session {
	return s.current
}

// DisplayName 展示名，匿名时为 Anonymous
func (s *Service) DisplayName() string {
	if s.current == nil {
		return "Anonymous"
	}
	if s.current.Name != "" {
		return s.current.Name
	}
	if s.current.Email != "" {
		return s.current.Email
	}
	return "User"
}

// Stats 当前用户概况，投票数据由调用方从投票服务取得后自行附加
type Stats struct {
	Session         *Session      `json:"session"`
	Identity        string        `json:"identity"`
	Permissions     Permissions   `json:"permissions"`
	SessionDuration time.Duration `json:"sessionDuration"`
}

// UserStats 汇总会话、身份与能力表
func (s *Service) UserStats(ctx context.Context) Stats {
	stats := Stats{
		Session:     s.current,
		Identity:    s.ActiveIdentity(ctx),
		Permissions: s.UserPermissions(),
	}
	if s.current != nil {
		stats.SessionDuration = time.Since(s.current.LoginTime)
	}
	return stats
}

// UserPermissions 按会话状态返回能力表
func (s *Service) UserPermissions() Permissions {
	perms := Permissions{
		CanVote:      true,
		CanViewVotes: true,
	}

	if s.current == nil {
		// 匿名用户仅有基础能力
		return perms
	}

	perms.CanSubmitPrompts = true
	if s.current.IsGuest {
		return perms
	}

	perms.CanViewPersonalStats = true
	perms.CanExportData = true
	return perms
}

// newID 生成 prefix + 9 位 base36 随机串
func newID(prefix string) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 9)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return prefix + string(b)
}
