// Package interfaces 定义 msgproxy 的公共接口
//
//   - transport.go - Transport 宿主传输契约（适配器边界）
//   - proxy.go     - MessageProxy 面向应用代码的公共 API
//
// 回调式宿主 API 到"最终值"的转换只发生在 Transport 边界；
// 其余部分只依赖这些接口，可用内存假传输独立测试。
package interfaces
