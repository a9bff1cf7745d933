// Package types 定义 msgproxy 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 msgproxy 内部包。
//
// # 文件组织
//
//   - envelope.go    - Envelope 信封（传输层上唯一的消息单元）
//   - destination.go - Destination 发送目标（background / content）
//   - sender.go      - SenderInfo 入站信封的发送方元数据
//   - value.go       - 负载值辅助函数（structpb.Value）
//   - errors.go      - 公共错误定义
//
// # 负载模型
//
// 跨上下文传递的数据是不透明的可序列化值，使用 structpb.Value 表示：
// 在每个上下文内部保持类型检查，跨越无类型的线路边界时显式转换。
package types
