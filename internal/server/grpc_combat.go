package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// CombatServiceName is the fully qualified gRPC service name.
const CombatServiceName = "dueltower.v1.CombatService"

// CombatService messages are google.protobuf.Struct values carrying the
// same JSON shapes the websocket transport uses.
type CombatServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SpawnEnemy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterCombatServiceServer(s grpc.ServiceRegistrar, srv CombatServiceServer) {
	s.RegisterService(&combatServiceDesc, srv)
}

func unaryMethod(name string, call func(CombatServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CombatServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + CombatServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CombatServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var combatServiceDesc = grpc.ServiceDesc{
	ServiceName: CombatServiceName,
	HandlerType: (*CombatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateSession", CombatServiceServer.CreateSession),
		unaryMethod("JoinSession", CombatServiceServer.JoinSession),
		unaryMethod("SpawnEnemy", CombatServiceServer.SpawnEnemy),
		unaryMethod("ApplyCommand", CombatServiceServer.ApplyCommand),
		unaryMethod("GetState", CombatServiceServer.GetState),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dueltower/v1/combat.proto",
}

type createSessionRequest struct {
	GMID string `json:"gmId"`
}

type joinSessionRequest struct {
	SessionCode string     `json:"sessionCode"`
	PlayerID    string     `json:"playerId"`
	Stats       game.Stats `json:"stats"`
}

type spawnEnemyRequest struct {
	SessionCode string `json:"sessionCode"`
	EnemyID     string `json:"enemyId"`
	MaxHP       int    `json:"maxHp"`
}

type applyCommandRequest struct {
	SessionCode string        `json:"sessionCode"`
	Command     game.Envelope `json:"command"`
}

type getStateRequest struct {
	SessionCode string `json:"sessionCode"`
}

type stateResponse struct {
	State      game.StateView `json:"state"`
	Checksum   game.Checksum  `json:"checksum"`
	ServerTime string         `json:"serverTime"`
}

func (s *combatServer) CreateSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createSessionRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	info, err := s.sessions.Create(ctx, req.GMID)
	if err != nil {
		return nil, statusFromError(err)
	}
	return encodeStruct(info)
}

func (s *combatServer) JoinSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req joinSessionRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	if err := s.sessions.Join(ctx, req.SessionCode, req.PlayerID, req.Stats); err != nil {
		return nil, statusFromError(err)
	}
	s.logger.Debug("join via gRPC",
		zap.String("session_code", req.SessionCode),
		zap.String("player_id", req.PlayerID),
	)
	return s.state(req.SessionCode)
}

func (s *combatServer) SpawnEnemy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req spawnEnemyRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	if err := s.sessions.SpawnEnemy(ctx, req.SessionCode, req.EnemyID, req.MaxHP); err != nil {
		return nil, statusFromError(err)
	}
	return s.state(req.SessionCode)
}

// ApplyCommand returns rejected commands as a normal response with
// accepted=false.
func (s *combatServer) ApplyCommand(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req applyCommandRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	res, err := s.sessions.Apply(ctx, req.SessionCode, req.Command)
	if err != nil {
		return nil, statusFromError(err)
	}
	return encodeStruct(res)
}

func (s *combatServer) GetState(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req getStateRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	return s.state(req.SessionCode)
}

func (s *combatServer) state(code string) (*structpb.Struct, error) {
	view, err := s.sessions.Snapshot(code)
	if err != nil {
		return nil, statusFromError(err)
	}
	sum, err := s.sessions.Checksum(code)
	if err != nil {
		return nil, statusFromError(err)
	}
	return encodeStruct(stateResponse{State: view, Checksum: sum, ServerTime: protoTime(time.Now())})
}

// protoTime renders t the way protobuf JSON renders a Timestamp.
func protoTime(t time.Time) string {
	raw, err := protojson.Marshal(timestamppb.New(t))
	if err != nil {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.Trim(string(raw), `"`)
}

func decodeStruct(in *structpb.Struct, out any) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// CombatClient is a typed client for CombatService.
type CombatClient struct {
	cc grpc.ClientConnInterface
}

func NewCombatClient(cc grpc.ClientConnInterface) *CombatClient {
	return &CombatClient{cc: cc}
}

func (c *CombatClient) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CombatServiceName+"/"+method, in, out); err != nil {
		return err
	}
	raw, err := json.Marshal(out.AsMap())
	if err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *CombatClient) CreateSession(ctx context.Context, gmID string) (session.Info, error) {
	var info session.Info
	err := c.invoke(ctx, "CreateSession", createSessionRequest{GMID: gmID}, &info)
	return info, err
}

func (c *CombatClient) JoinSession(ctx context.Context, code, playerID string, stats game.Stats) (game.StateView, error) {
	var resp stateResponse
	err := c.invoke(ctx, "JoinSession", joinSessionRequest{SessionCode: code, PlayerID: playerID, Stats: stats}, &resp)
	return resp.State, err
}

func (c *CombatClient) SpawnEnemy(ctx context.Context, code, enemyID string, maxHP int) (game.StateView, error) {
	var resp stateResponse
	err := c.invoke(ctx, "SpawnEnemy", spawnEnemyRequest{SessionCode: code, EnemyID: enemyID, MaxHP: maxHP}, &resp)
	return resp.State, err
}

// CommandResult is session.ApplyResult as decoded by a client, with event
// payloads left as JSON objects.
type CommandResult struct {
	Accepted  bool          `json:"accepted"`
	Errors    []string      `json:"errors,omitempty"`
	Events    []ClientEvent `json:"events,omitempty"`
	Version   int64         `json:"version"`
	CommandID string        `json:"commandId,omitempty"`
}

type ClientEvent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func (c *CombatClient) ApplyCommand(ctx context.Context, code string, env game.Envelope) (CommandResult, error) {
	var res CommandResult
	err := c.invoke(ctx, "ApplyCommand", applyCommandRequest{SessionCode: code, Command: env}, &res)
	return res, err
}

func (c *CombatClient) GetState(ctx context.Context, code string) (game.StateView, game.Checksum, error) {
	var resp stateResponse
	err := c.invoke(ctx, "GetState", getStateRequest{SessionCode: code}, &resp)
	return resp.State, resp.Checksum, err
}
