package router

import (
	"runtime/debug"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/logic/eventparser"
	"pumpwatch-sol/internal/logic/txadapter"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/pkg/logger"
)

type MatchMode string

const (
	MatchFirst MatchMode = "first" // 每笔交易只取第一条命中指令
	MatchAll   MatchMode = "all"   // 每条命中指令各产出一个事件
)

// Emitter 接收路由产出的事件，实现方不得阻塞
type Emitter interface {
	Emit(ev *core.DecodedEvent)
}

// Router 将一条 gRPC 推送路由到匹配、解析、解码。
// 不持有任何跨调用的可变状态，Handle 可独立测试。
type Router struct {
	matcher  *eventparser.Matcher
	mode     MatchMode
	emitters []Emitter
}

func NewRouter(table *protocol.Table, mode MatchMode, emitters ...Emitter) *Router {
	if mode != MatchAll {
		mode = MatchFirst
	}
	return &Router{
		matcher:  eventparser.NewMatcher(table),
		mode:     mode,
		emitters: emitters,
	}
}

// Handle 返回第一条命中指令的解码结果；命中但解析失败时丢弃并返回 false
func (r *Router) Handle(update *pb.SubscribeUpdate) (*core.DecodedEvent, bool) {
	events := r.route(update, false)
	if len(events) == 0 {
		return nil, false
	}
	return events[0], true
}

// HandleAll 按指令顺序返回所有命中指令的解码结果，解析失败的单条跳过
func (r *Router) HandleAll(update *pb.SubscribeUpdate) []*core.DecodedEvent {
	return r.route(update, true)
}

// Dispatch 按配置的匹配模式处理推送，并把结果交给所有 Emitter
func (r *Router) Dispatch(update *pb.SubscribeUpdate) {
	var events []*core.DecodedEvent
	if r.mode == MatchAll {
		events = r.HandleAll(update)
	} else if ev, ok := r.Handle(update); ok {
		events = []*core.DecodedEvent{ev}
	}
	for _, ev := range events {
		for _, e := range r.emitters {
			e.Emit(ev)
		}
	}
}

func (r *Router) route(update *pb.SubscribeUpdate, all bool) (events []*core.DecodedEvent) {
	var signature string
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("[Router] panic: %v, stack=%s, tx=%s", rec, debug.Stack(), signature)
			events = nil
		}
	}()

	tx, ok := txadapter.AdaptUpdate(update)
	if !ok {
		return nil
	}
	signature = tx.Signature

	for i, ix := range tx.Message.Instructions {
		kind, ok := r.matcher.Match(ix)
		if !ok || !programAccepted(kind, ix, tx.Message.AccountKeys) {
			continue
		}

		ev, err := assemble(tx, i, kind)
		if err != nil {
			logger.Warnf("[Router] 丢弃事件: kind=%s, ix=%d, reason=%v, tx=%s", kind.Name, i, err, tx.Signature)
		} else {
			events = append(events, ev)
		}
		if !all {
			break
		}
	}
	return events
}

// programAccepted 类型限定了程序时，指令的程序地址必须一致
func programAccepted(kind *protocol.Kind, ix core.Instruction, keys [][]byte) bool {
	if kind.ProgramID == nil {
		return true
	}
	p, ok := eventparser.ProgramOf(ix, keys)
	return ok && p == *kind.ProgramID
}

func assemble(tx *core.AdaptedTx, ixIndex int, kind *protocol.Kind) (*core.DecodedEvent, error) {
	ix := tx.Message.Instructions[ixIndex]

	roles, err := eventparser.ResolveRoles(ix, tx.Message.AccountKeys, kind.Roles)
	if err != nil {
		return nil, err
	}
	args, err := eventparser.DecodeArgs(ix.Data, kind.Args)
	if err != nil {
		return nil, err
	}
	derived, err := eventparser.DeriveRoles(kind.Derived, roles, args)
	if err != nil {
		return nil, err
	}

	ev := &core.DecodedEvent{
		Kind:      kind.Name,
		Signature: tx.Signature,
		Slot:      tx.Slot,
		IxIndex:   ixIndex,
		Roles:     append(roles, derived...),
		Args:      args,
	}

	// 曲线快照缺失不影响事件本身
	if kind.Event != nil {
		if curve, err := eventparser.DecodeCurveEvent(kind, &tx.Message, ixIndex, ev.Mint()); err == nil {
			ev.Curve = curve
		} else if !eventparser.IsEventNotFound(err) {
			logger.Debugf("[Router] 曲线快照解析失败: kind=%s, err=%v, tx=%s", kind.Name, err, tx.Signature)
		}
	}
	return ev, nil
}
