// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
//
// Collector 以 prometheus 计数器/直方图记录每次问答的意图分布、
// 检索与 agent 延迟、上游失败与合成数据回退次数。指标只做观测,
// 永远不改变控制流。
package metrics
