// Package wakegate 是 Minecraft 服务器的按需唤醒网关
//
// 网关监听固定地址，对每个入站连接：
//   - 后端在运行且端口可达时，原样中继 TCP 字节
//   - 否则代替后端应答状态查询；玩家尝试登录时通过 Pterodactyl 面板发出启动信号，
//     并以"正在唤醒"的断开消息结束连接
//
// 同时周期性检查在线玩家数，后端空闲超过阈值时发出停止信号。
//
// # 快速开始
//
//	cfg, err := wakegate.LoadConfig(wakegate.LoadOptions{EnvFile: ".env"})
//	if err != nil {
//	    return err
//	}
//	gw, err := wakegate.New(wakegate.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	if err := gw.Start(ctx); err != nil {
//	    return err
//	}
//	defer gw.Stop(context.Background())
//
// # 配置
//
// 必填环境变量：PTERO_PANEL、PTERO_SERVER_ID、PTERO_API_KEY。
// 可选：LISTEN_PORT、BACKEND_HOST、BACKEND_PORT、IDLE_SHUTDOWN_MINUTES，
// 以及 WAKEGATE_<SECTION>_<KEY> 形式的扩展项（如 WAKEGATE_IMPERSONATION_GRACE_WINDOW）。
package wakegate
