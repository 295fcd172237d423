// Package agent implements the four responder agents and the per-request
// state they operate on.
//
// 每次请求持有独立的 State,agent 之间不共享可变状态。Result 按意图
// 分型(QAResult / MarketResult / PortfolioResult / GoalsResult),
// 由 State.Apply 合并回状态,编排层不感知具体载荷。
package agent
