// Package types 定义 wakegate 的公共数据结构
//
// 这是最底层的包，不依赖任何其他内部包；所有类型都是纯值类型。
//
// # 文件组织
//
//   - backend.go - BackendState 后端生命周期状态、PowerSignal 电源信号
package types
