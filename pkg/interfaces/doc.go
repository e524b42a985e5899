// Package interfaces 定义 wakegate 各组件之间的抽象契约
//
// 具体实现位于 internal/core 下，通过 fx 按接口注入。测试可直接替换为 mock。
//
// # 文件组织
//
//   - power.go   - PowerController 远端电源控制（查询状态、发送信号）
//   - probe.go   - ReachabilityProber 端口探测、StatusProber 应用层存活探测
//   - starter.go - Starter 启动协调（冷却去抖）
package interfaces
